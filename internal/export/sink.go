package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSink materialises downloads in a directory.
type FileSink struct {
	Dir string
}

// Write stores d under the sink directory and returns the file path. The
// file appears atomically.
func (s FileSink) Write(d Download) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	name := filepath.Base(d.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid export file name: %q", d.Filename)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	if _, err := tmp.Write(d.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write export: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
