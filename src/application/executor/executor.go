package executor

import (
	"context"
	"os/exec"
	"time"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

var _ Executor = BinaryFileExecutor{}
var _ Command = &BinaryCommand{}

// killWaitDelay caps how long CombinedOutput waits for the output pipes
// after the process group was killed.
const killWaitDelay = 5 * time.Second

//counterfeiter:generate . Executor
type Executor interface {
	CommandContext(ctx context.Context, name string, arg ...string) Command
}

//counterfeiter:generate . Command
type Command interface {
	SetDir(dir string)
	CombinedOutput() ([]byte, error)
}

// BinaryFileExecutor runs real binaries. When the context is done the
// command's whole process group is killed, not just the direct child.
type BinaryFileExecutor struct{}

func (b BinaryFileExecutor) CommandContext(ctx context.Context, name string, arg ...string) Command {
	cmd := exec.CommandContext(ctx, name, arg...)
	killProcessGroupOnCancel(cmd)
	cmd.WaitDelay = killWaitDelay

	return &BinaryCommand{Cmd: cmd}
}

type BinaryCommand struct {
	*exec.Cmd
}

func (b *BinaryCommand) SetDir(dir string) {
	b.Cmd.Dir = dir
}
