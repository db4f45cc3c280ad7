//go:build windows

package system

import "os/exec"

func elevatedCopy(src, dst string) (*exec.Cmd, error) {
	return nil, ErrNotSupported
}
