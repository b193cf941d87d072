package recorder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/ja7ad/ecosched/pkg/power"
	"github.com/ja7ad/ecosched/pkg/scheduler"
	"github.com/ja7ad/ecosched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func scenarioEntries() []Entry {
	st := power.State{BatteryPercent: 20, OnExternalPower: false}
	return []Entry{
		{Decision: scheduler.Decision{Seq: 1, Task: catalog.Task{Name: "A", Seconds: 10}, Label: types.High, Energy: 20, Action: types.Deferred, At: at, Power: st}},
		{Decision: scheduler.Decision{Seq: 2, Task: catalog.Task{Name: "C", Seconds: 20}, Label: types.Medium, Energy: 20, Action: types.Executed, At: at, Power: st}, Elapsed: 20 * time.Second, MeasuredJ: 300},
		{Decision: scheduler.Decision{Seq: 3, Task: catalog.Task{Name: "B", Seconds: 5}, Label: types.Low, Energy: 2.5, Action: types.Executed, At: at, Power: st}, Elapsed: 5 * time.Second},
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCSV_Format(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSV(&buf, true)
	require.NoError(t, err)
	for _, e := range scenarioEntries() {
		require.NoError(t, w.Record(context.Background(), e))
	}
	require.NoError(t, w.Close())

	want := `timestamp,task,action,label,energy,battery,on_ac
"2026-03-01T12:00:00Z",A,deferred,high,20,20,0
"2026-03-01T12:00:00Z",C,executed,medium,20,20,0
"2026-03-01T12:00:00Z",B,executed,low,2.5,20,0
`
	assert.Equal(t, want, buf.String())
}

func TestCSV_RoundTrip(t *testing.T) {
	entries := scenarioEntries()
	entries = append(entries, Entry{Decision: scheduler.Decision{
		Task:   catalog.Task{Name: `odd, "name"`, Seconds: 3},
		Label:  types.Medium,
		Energy: 3,
		At:     at.Add(time.Minute),
		Power:  power.State{BatteryPercent: 99.5, OnExternalPower: true},
	}})

	var buf bytes.Buffer
	w, err := NewCSV(&buf, true)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, w.Record(context.Background(), e))
	}

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, len(entries))
	for i, e := range entries {
		assert.Equal(t, RowOf(e), rows[i], "row %d", i)
		assert.Len(t, rows[i].Fields(), len(Columns))
	}
}

func TestOpenCSV_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.csv")
	for run := 0; run < 2; run++ {
		w, err := OpenCSV(path)
		require.NoError(t, err)
		require.NoError(t, w.Record(context.Background(), scenarioEntries()[0]))
		require.NoError(t, w.Close())
	}

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(b), "timestamp,task"))
	assert.Equal(t, 3, strings.Count(string(b), "\n"))
}

func TestOpenCSV_EmptyRunStillWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.csv")
	w, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rows, err := readFile(t, path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func readFile(t *testing.T, path string) ([]Row, error) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	return ReadCSV(f)
}

func TestReadCSV_SkipsRepeatedHeaders(t *testing.T) {
	src := "timestamp,task,action,label,energy,battery,on_ac\n" +
		"\"t1\",A,executed,low,1,50,1\n" +
		"\"timestamp\",task,action,label,energy,battery,on_ac\n" +
		"\"t2\",B,deferred,high,4,10,0\n"
	rows, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "t2", rows[1].Timestamp)
	assert.Equal(t, types.Deferred, rows[1].Action)
	assert.False(t, rows[1].OnAC)
}

func TestReadCSV_Malformed(t *testing.T) {
	cases := map[string]string{
		"short":     "\"t\",A,executed,low,1,50\n",
		"label":     "\"t\",A,executed,giant,1,50,1\n",
		"energy":    "\"t\",A,executed,low,x,50,1\n",
		"on_ac":     "\"t\",A,executed,low,1,50,yes\n",
		"action":    "\"t\",A,ran,low,1,50,1\n",
		"battery":   "\"t\",A,executed,low,1,,1\n",
		"bad_quote": "\"t,A,executed,low,1,50,1\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestText_Lines(t *testing.T) {
	var buf bytes.Buffer
	w := NewText(&buf)
	entries := scenarioEntries()
	entries[2].Err = errors.New("exit status 1")
	for _, e := range entries {
		require.NoError(t, w.Record(context.Background(), e))
	}
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[2026-03-01T12:00:00Z] A: deferred (high, 20) battery 20% (battery)", lines[0])
	assert.Equal(t, "[2026-03-01T12:00:00Z] C: executed (medium, 20) in 20.00s, measured 300 J", lines[1])
	assert.Equal(t, "[2026-03-01T12:00:00Z] B: executed (low, 2.5) in 5.00s failed: exit status 1", lines[2])
}

func TestSinks_ShareTimestamp(t *testing.T) {
	var text, structured bytes.Buffer
	c, err := NewCSV(&structured, false)
	require.NoError(t, err)
	rec := Multi(NewText(&text), c)

	e := scenarioEntries()[1]
	e.Decision.At = time.Date(2026, 7, 4, 9, 30, 15, 0, time.UTC)
	require.NoError(t, rec.Record(context.Background(), e))

	ts := e.Decision.At.Format(TimeLayout)
	assert.Contains(t, text.String(), ts)
	assert.True(t, strings.HasPrefix(structured.String(), `"`+ts+`"`))
}

func TestOpen_SinkError(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing-dir", "log.txt")

	_, err := OpenText(bad)
	var se *SinkError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "open", se.Op)

	_, err = OpenCSV(bad)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "open", se.Op)
}

func TestWrite_SinkError(t *testing.T) {
	err := NewText(failWriter{}).Record(context.Background(), scenarioEntries()[0])
	var se *SinkError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "write", se.Op)

	_, err = NewCSV(failWriter{}, true)
	require.True(t, errors.As(err, &se))

	c, err := NewCSV(failWriter{}, false)
	require.NoError(t, err)
	err = c.Record(context.Background(), scenarioEntries()[0])
	require.True(t, errors.As(err, &se))
}

type memRecorder struct {
	got    []string
	fail   bool
	closed bool
}

func (m *memRecorder) Record(_ context.Context, e Entry) error {
	if m.fail {
		return &SinkError{Sink: "mem", Op: "write", Err: errors.New("nope")}
	}
	m.got = append(m.got, e.Decision.Task.Name)
	return nil
}

func (m *memRecorder) Close() error { m.closed = true; return nil }

func TestMulti(t *testing.T) {
	a, b := &memRecorder{}, &memRecorder{}
	rec := Multi(a, b)
	for _, e := range scenarioEntries() {
		require.NoError(t, rec.Record(context.Background(), e))
	}
	assert.Equal(t, []string{"A", "C", "B"}, a.got)
	assert.Equal(t, a.got, b.got)

	require.NoError(t, rec.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestMulti_StopsAtFirstError(t *testing.T) {
	a, b := &memRecorder{fail: true}, &memRecorder{}
	err := Multi(a, b).Record(context.Background(), scenarioEntries()[0])
	require.Error(t, err)
	assert.Empty(t, b.got)
}
