//go:build !unix

package nox

import "os/exec"

// setProcessGroup leaves exec.CommandContext's default cancellation in place,
// which kills only the direct child on this platform.
func setProcessGroup(cmd *exec.Cmd) {}
