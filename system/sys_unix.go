//go:build !darwin && !windows

package system

import "os/exec"

// elevatedCopy relies on non-interactive sudo: the terminal belongs to the
// editor, so sudo must not prompt.
func elevatedCopy(src, dst string) (*exec.Cmd, error) {
	return exec.Command("sudo", "-n", "sh", "-c", "cat "+shellQuote(src)+" > "+shellQuote(dst)), nil
}
