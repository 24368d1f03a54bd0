package storage

import "io"

// BlobStore holds lesson attachments and the PDF sources quizzes are
// generated from, addressed by opaque slash-separated keys. Put returns the
// canonical key the blob was stored under; SignedURL yields a fetchable
// location for clients (the fs driver returns a file:// URL for dev).
type BlobStore interface {
	Put(key string, r io.Reader) (string, error)
	Get(key string) (io.ReadCloser, error)
	SignedURL(key string) (string, error)
}
