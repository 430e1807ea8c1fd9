package storage

import (
	"context"
	"fmt"
	"strings"
)

// Router dispatches Read to the backend matching a path's scheme: plain
// paths and "file://" go to Local, "http://"/"https://" to HTTP,
// "s3://" to S3. It is itself a FileStorage, so callers needn't branch
// on scheme themselves.
type Router struct {
	Local LocalStorage
	HTTP  HTTPStorage
	S3    S3Storage
}

// NewRouter builds a Router with a local base directory and, if
// non-empty, S3 credentials for s3:// paths.
func NewRouter(localBaseDir string, s3 S3Storage) *Router {
	return &Router{Local: LocalStorage{BaseDir: localBaseDir}, S3: s3}
}

func (r *Router) Read(ctx context.Context, path string) ([]byte, error) {
	switch {
	case strings.HasPrefix(path, "s3://"):
		return r.S3.Read(ctx, path)
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return r.HTTP.Read(ctx, path)
	case strings.HasPrefix(path, "file://"), !strings.Contains(path, "://"):
		return r.Local.Read(ctx, path)
	default:
		return nil, fmt.Errorf("storage: unsupported path scheme: %s", path)
	}
}

var _ FileStorage = (*Router)(nil)
