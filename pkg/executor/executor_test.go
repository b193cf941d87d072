package executor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"github.com/ja7ad/ecosched/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExecutor_MeasuresElapsed(t *testing.T) {
	w := FuncWorkload(func(ctx context.Context, tk catalog.Task) (Result, error) {
		time.Sleep(10 * time.Millisecond)
		return Result{CPUTime: time.Millisecond}, nil
	})
	res, err := New(w, quietLogger()).Execute(context.Background(), catalog.Task{Name: "A", Seconds: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Elapsed, 10*time.Millisecond)
	assert.Equal(t, time.Millisecond, res.CPUTime)
}

func TestExecutor_WrapsPlainErrors(t *testing.T) {
	boom := errors.New("boom")
	w := FuncWorkload(func(context.Context, catalog.Task) (Result, error) { return Result{}, boom })

	_, err := New(w, nil).Execute(context.Background(), catalog.Task{Name: "A", Seconds: 1})
	require.Error(t, err)

	var ee *ExecutionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "A", ee.Task)
	assert.Equal(t, "run", ee.Op)
	assert.True(t, errors.Is(err, boom))
}

func TestNoop(t *testing.T) {
	res, err := New(Noop(), quietLogger()).Execute(context.Background(), catalog.Task{Name: "x", Seconds: 3600})
	require.NoError(t, err)
	assert.Less(t, res.Elapsed, time.Second)
}

func TestProcessWorkload_Args(t *testing.T) {
	sh := requireShell(t)
	w := &ProcessWorkload{
		Command:  []string{sh, "-c", `test "$0" = CPU && test "$1" = 2`},
		Category: "CPU",
	}
	_, err := New(w, quietLogger()).Execute(context.Background(), catalog.Task{Name: "A", Seconds: 2})
	require.NoError(t, err)
}

func TestProcessWorkload_CategoryDefaultsToName(t *testing.T) {
	sh := requireShell(t)
	w := &ProcessWorkload{Command: []string{sh, "-c", `test "$0" = render`}}
	_, err := w.Run(context.Background(), catalog.Task{Name: "render", Seconds: 1})
	require.NoError(t, err)
}

func TestProcessWorkload_NonZeroExit(t *testing.T) {
	sh := requireShell(t)
	w := &ProcessWorkload{Command: []string{sh, "-c", "exit 3"}}
	_, err := w.Run(context.Background(), catalog.Task{Name: "A", Seconds: 1})

	var ee *ExecutionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "wait", ee.Op)
}

func TestProcessWorkload_LaunchFailure(t *testing.T) {
	w := &ProcessWorkload{Command: []string{"/nonexistent/ecosched-worker"}}
	_, err := New(w, quietLogger()).Execute(context.Background(), catalog.Task{Name: "A", Seconds: 1})

	var ee *ExecutionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "launch", ee.Op)
	assert.Equal(t, "A", ee.Task)
}

func TestProcessWorkload_EmptyCommand(t *testing.T) {
	_, err := (&ProcessWorkload{}).Run(context.Background(), catalog.Task{Name: "A", Seconds: 1})
	assert.True(t, errors.Is(err, ErrNoCommand))
}

func TestProcessWorkload_Stdout(t *testing.T) {
	sh := requireShell(t)
	var out bytes.Buffer
	w := &ProcessWorkload{Command: []string{sh, "-c", `echo "[task $0] $1s"`}, Category: "CPU", Stdout: &out}
	_, err := w.Run(context.Background(), catalog.Task{Name: "A", Seconds: 4})
	require.NoError(t, err)
	assert.Equal(t, "[task CPU] 4s\n", out.String())
}

func TestBurn(t *testing.T) {
	start := time.Now()
	require.NoError(t, Burn(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestBurn_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Burn(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBurnWorkload(t *testing.T) {
	w := BurnWorkload{Unit: 5 * time.Millisecond}
	res, err := New(w, quietLogger()).Execute(context.Background(), catalog.Task{Name: "A", Seconds: 3})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Elapsed, 15*time.Millisecond)
	assert.Greater(t, res.CPUTime, time.Duration(0))
}

func TestParseSeconds(t *testing.T) {
	n, err := ParseSeconds("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	for _, bad := range []string{"", "0", "-1", "1.5", "ten"} {
		_, err := ParseSeconds(bad)
		assert.ErrorIs(t, err, ErrBadSeconds, "input %q", bad)
	}
}
