package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var ErrNotSupported = errors.New("not supported")

// Writer replaces the content of a hosts file.
type Writer interface {
	Write(text string) error
}

// FileWriter overwrites Path directly, without elevation.
type FileWriter struct {
	Path string
}

func (w FileWriter) Write(text string) error {
	if err := os.WriteFile(w.Path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.Path, err)
	}
	logrus.Infof("wrote %d bytes to %s", len(text), w.Path)
	return nil
}

// PrivilegedWriter stages the text in a temporary file and has an elevated
// helper process copy it over Path. The protected file is never opened by
// this process.
type PrivilegedWriter struct {
	Path string
}

func NewPrivilegedWriter(path string) *PrivilegedWriter {
	return &PrivilegedWriter{Path: path}
}

func (w *PrivilegedWriter) Write(text string) error {
	tmp, err := os.CreateTemp("", "hostsed-*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write staging file: %w", err)
	}

	c, err := elevatedCopy(tmp.Name(), w.Path)
	if err != nil {
		return err
	}

	logrus.Infoln(c.String())

	if out, err := c.CombinedOutput(); err != nil {
		return errors.New(strings.TrimSpace(string(out)) + ": " + err.Error())
	}

	logrus.Infof("wrote %d bytes to %s", len(text), w.Path)
	return nil
}

// DefaultHostsPath is the system hosts file of the running platform.
func DefaultHostsPath() string {
	if runtime.GOOS == "windows" {
		root := os.Getenv("SystemRoot")
		if root == "" {
			root = `C:\Windows`
		}
		return filepath.Join(root, "System32", "drivers", "etc", "hosts")
	}
	return "/etc/hosts"
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
