//go:build !unix

package executor

import "os/exec"

// without process groups the default Cancel, killing the direct child, is all we get
func killProcessGroupOnCancel(_ *exec.Cmd) {}
