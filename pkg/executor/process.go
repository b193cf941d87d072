package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/ja7ad/ecosched/pkg/catalog"
)

// ProcessWorkload launches an external worker as
//
//	Command[0] Command[1:]... <category> <seconds>
//
// and waits for it. Only the exit status is interpreted.
type ProcessWorkload struct {
	Command  []string
	Category string // empty means the task name
	Stdout   io.Writer
	Stderr   io.Writer
}

// SelfCommand returns the command that runs this binary's worker
// subcommand.
func SelfCommand() ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("executor: locate executable: %w", err)
	}
	return []string{exe, "worker"}, nil
}

func (p *ProcessWorkload) Run(ctx context.Context, t catalog.Task) (Result, error) {
	if len(p.Command) == 0 {
		return Result{}, &ExecutionError{Task: t.Name, Op: "launch", Err: ErrNoCommand}
	}

	category := p.Category
	if category == "" {
		category = t.Name
	}
	args := make([]string, 0, len(p.Command)+1)
	args = append(args, p.Command[1:]...)
	args = append(args, category, strconv.Itoa(t.Seconds))

	cmd := exec.CommandContext(ctx, p.Command[0], args...)
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr

	if err := cmd.Start(); err != nil {
		return Result{}, &ExecutionError{Task: t.Name, Op: "launch", Err: err}
	}
	err := cmd.Wait()

	var res Result
	if ps := cmd.ProcessState; ps != nil {
		res.CPUTime = ps.UserTime() + ps.SystemTime()
	}
	if err != nil {
		return res, &ExecutionError{Task: t.Name, Op: "wait", Err: err}
	}
	return res, nil
}
