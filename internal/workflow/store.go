package workflow

import (
	"fmt"
	"os"
	"path/filepath"
)

// OSStore is the FileStore backed by the real filesystem. Writes create
// missing parent directories so a brand-new test file can land at its
// conventional path.
type OSStore struct{}

func (OSStore) Read(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (OSStore) Write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
