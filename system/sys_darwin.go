//go:build darwin

package system

import "os/exec"

// elevatedCopy asks for administrator rights through the standard macOS
// authorization dialog.
func elevatedCopy(src, dst string) (*exec.Cmd, error) {
	script := "/bin/cat " + shellQuote(src) + " > " + shellQuote(dst)
	applescript := "do shell script " + appleScriptString(script) + " with administrator privileges"
	return exec.Command("osascript", "-e", applescript), nil
}
