package notifier

import (
	"fmt"
	"os"
	"path/filepath"
)

// MOTDWriter replaces a message-of-the-day file with the latest scan
// banner. Writes go through a temp file and rename so readers never see
// a partial banner.
type MOTDWriter struct {
	Path string
}

// Configured reports whether a target path is set.
func (w *MOTDWriter) Configured() bool {
	return w != nil && w.Path != ""
}

// Write replaces the file contents with text.
func (w *MOTDWriter) Write(text string) error {
	dir := filepath.Dir(w.Path)
	tmp, err := os.CreateTemp(dir, ".motd-*")
	if err != nil {
		return fmt.Errorf("create temp motd: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write motd: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close motd: %w", err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return fmt.Errorf("chmod motd: %w", err)
	}
	if err := os.Rename(name, w.Path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replace motd: %w", err)
	}
	return nil
}
