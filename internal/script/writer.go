package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// WriteAll persists every rendered script under dir, creating missing
// directories. Each file lands atomically: content goes to a temp file in
// the destination directory first and is renamed into place, so a crashed
// or aborted run never leaves a half-written script visible. Existing files
// are overwritten; runs are reproducible, not additive.
func WriteAll(scripts map[string]string, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := writeScript(path, scripts[name]); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeScript(path, content string) error {
	dir, base := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name()) // no-op after a successful rename
	}()

	if _, err := tmp.WriteString(content); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0o755); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
