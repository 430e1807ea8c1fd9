// Package storage is the FileStorage collaborator (spec §6): the core
// never opens a file or makes an HTTP request directly — every document
// the async cognify worker fetches by trigger path comes through Read,
// backed by a local filesystem, an HTTP(S) URL, or an S3-compatible bucket.
// Text passed inline to Add does not go through FileStorage.
package storage

import "context"

// FileStorage reads a document's bytes given an opaque path. The path's
// scheme selects the backend: no scheme or "file://" is local, "http://"
// and "https://" fetch over HTTP, "s3://bucket/key" reads from an
// S3-compatible object store.
type FileStorage interface {
	Read(ctx context.Context, path string) ([]byte, error)
}
