package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage reads from the host filesystem. Relative paths are resolved
// under the optional base directory and are rejected if "../" traversal
// would take them outside it; absolute paths are read as given.
type LocalStorage struct {
	BaseDir string
}

func (l LocalStorage) Read(ctx context.Context, path string) ([]byte, error) {
	path = strings.TrimPrefix(path, "file://")
	if l.BaseDir != "" && !strings.HasPrefix(path, "/") {
		base := filepath.Clean(l.BaseDir)
		joined := filepath.Join(base, path)
		if joined != base && !strings.HasPrefix(joined, base+string(filepath.Separator)) {
			return nil, fmt.Errorf("storage: path %s escapes base directory %s", path, l.BaseDir)
		}
		path = joined
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read local file %s: %w", path, err)
	}
	return data, nil
}
