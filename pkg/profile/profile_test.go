package profile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/ja7ad/ecosched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "A": "high",
  "B": "low",
  "D": "medium",
  "E": "HIGH"
}`

func TestExact_Lookup(t *testing.T) {
	p, err := Load(strings.NewReader(sample), ModeExact)
	require.NoError(t, err)

	assert.Equal(t, types.High, p.Lookup("A"))
	assert.Equal(t, types.Low, p.Lookup("B"))
	assert.Equal(t, types.Medium, p.Lookup("C"), "unspecified defaults to medium")
	assert.Equal(t, types.Medium, p.Lookup("D"))
	assert.Equal(t, types.Medium, p.Lookup("E"), "label tokens are case-sensitive")
}

func TestExact_NilIsAllMedium(t *testing.T) {
	var p Exact
	assert.Equal(t, types.Medium, p.Lookup("anything"))
}

func TestExact_NoSubstringLeak(t *testing.T) {
	p, err := Load(strings.NewReader(`{"backup_full": "high"}`), ModeExact)
	require.NoError(t, err)
	assert.Equal(t, types.Medium, p.Lookup("backup"))
	assert.Equal(t, types.High, p.Lookup("backup_full"))
}

func TestContains_Lookup(t *testing.T) {
	p, err := Load(strings.NewReader(sample), ModeContains)
	require.NoError(t, err)

	assert.Equal(t, types.High, p.Lookup("A"))
	assert.Equal(t, types.Low, p.Lookup("B"))
	assert.Equal(t, types.Medium, p.Lookup("C"))
	assert.Equal(t, types.Medium, p.Lookup(""))
}

func TestContains_ReadsNonJSON(t *testing.T) {
	// trailing comma is not valid JSON; the legacy scan still reads it
	src := `{"render": "high", "index": "low",}`
	p, err := Load(strings.NewReader(src), ModeContains)
	require.NoError(t, err)
	assert.Equal(t, types.High, p.Lookup("render"))
	assert.Equal(t, types.Low, p.Lookup("index"))

	_, err = Load(strings.NewReader(src), ModeExact)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestLookup_Deterministic(t *testing.T) {
	for _, mode := range []Mode{ModeExact, ModeContains} {
		p, err := Load(strings.NewReader(sample), mode)
		require.NoError(t, err)
		first := p.Lookup("A")
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, p.Lookup("A"), "mode=%s", mode)
		}
	}
}

func TestLoadFile_Missing(t *testing.T) {
	p, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"), ModeExact)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	require.NotNil(t, p)
	assert.Equal(t, types.Medium, p.Lookup("A"))
}

func TestLoad_FallbackIsEmptyProfile(t *testing.T) {
	for _, mode := range []Mode{ModeExact, ModeContains} {
		t.Run(string(mode), func(t *testing.T) {
			p, err := Load(iotestErrReader{}, mode)
			require.ErrorIs(t, err, ErrSourceUnavailable)
			require.NotNil(t, p)
			assert.Equal(t, Exact{}, p)
			assert.Equal(t, types.Medium, p.Lookup("A"))
		})
	}

	p, err := Load(strings.NewReader("{not json"), ModeExact)
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, Exact{}, p)
}

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeExact, m)

	m, err = ParseMode("Contains")
	require.NoError(t, err)
	assert.Equal(t, ModeContains, m)

	_, err = ParseMode("fuzzy")
	assert.Error(t, err)
}

func TestClassifySeconds(t *testing.T) {
	cases := map[int]types.Label{
		1: types.Low, 2: types.Low,
		3: types.Medium, 6: types.Medium,
		7: types.High, 40: types.High,
	}
	for secs, want := range cases {
		assert.Equal(t, want, ClassifySeconds(secs), "seconds=%d", secs)
	}
}

func TestClassify_WriteReadBack(t *testing.T) {
	tasks := []catalog.Task{{Name: "A", Seconds: 10}, {Name: "B", Seconds: 1}, {Name: "C", Seconds: 4}}
	p := Classify(tasks)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))
	assert.Contains(t, buf.String(), `"A": "high"`)

	for _, mode := range []Mode{ModeExact, ModeContains} {
		got, err := Load(bytes.NewReader(buf.Bytes()), mode)
		require.NoError(t, err)
		assert.Equal(t, types.High, got.Lookup("A"), "mode=%s", mode)
		assert.Equal(t, types.Low, got.Lookup("B"), "mode=%s", mode)
		assert.Equal(t, types.Medium, got.Lookup("C"), "mode=%s", mode)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "profiles.json")
	require.NoError(t, WriteFile(path, Exact{"A": types.High}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"A": "high"`)
}
