package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// Archive stores export files.
type Archive interface {
	// Check verifies the bucket is reachable and the prefix is listable.
	Check(ctx context.Context, bucket, prefix string) error
	Put(ctx context.Context, loc ObjectLocation, contentType string, body []byte) error
}

// GCSArchive writes objects to Google Cloud Storage.
type GCSArchive struct {
	client *storage.Client
}

func NewGCSArchive(client *storage.Client) *GCSArchive {
	if client == nil {
		panic("storage client is required")
	}
	return &GCSArchive{client: client}
}

func (a *GCSArchive) Check(ctx context.Context, bucket, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("storage prefix is required")
	}

	bkt := a.client.Bucket(bucket)
	if _, err := bkt.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket attrs: %w", err)
	}

	// List at most one object to validate access to the prefix; empty is fine.
	it := bkt.Objects(ctx, &storage.Query{Prefix: prefix})
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("list prefix: %w", err)
	}
	return nil
}

func (a *GCSArchive) Put(ctx context.Context, loc ObjectLocation, contentType string, body []byte) error {
	w := a.client.Bucket(loc.Bucket).Object(loc.FullPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", loc, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", loc, err)
	}
	return nil
}

// LocalArchive mirrors the bucket layout under BasePath for local development.
type LocalArchive struct {
	BasePath string
}

func NewLocalArchive(basePath string) *LocalArchive {
	if basePath == "" {
		panic("local archive requires basePath")
	}
	return &LocalArchive{BasePath: basePath}
}

func (a *LocalArchive) Check(ctx context.Context, bucket, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("storage prefix is required")
	}
	// Creating the directory is idempotent for local dev.
	if err := os.MkdirAll(filepath.Join(a.BasePath, bucket, filepath.FromSlash(prefix)), 0o755); err != nil {
		return fmt.Errorf("create prefix path: %w", err)
	}
	return nil
}

func (a *LocalArchive) Put(ctx context.Context, loc ObjectLocation, contentType string, body []byte) error {
	path := a.Path(loc)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Path is the file backing loc.
func (a *LocalArchive) Path(loc ObjectLocation) string {
	return filepath.Join(a.BasePath, loc.Bucket, filepath.FromSlash(loc.FullPath))
}

// OpenArchive resolves gs://bucket or file:///dir/bucket into an archive plus
// its bucket name.
func OpenArchive(ctx context.Context, rawURL string) (Archive, string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, "", fmt.Errorf("parse archive url: %w", err)
	}

	switch u.Scheme {
	case "gs":
		if u.Host == "" {
			return nil, "", fmt.Errorf("archive url %q has no bucket", rawURL)
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("init storage client: %w", err)
		}
		return NewGCSArchive(client), u.Host, nil
	case "file":
		dir := filepath.Clean(filepath.FromSlash(u.Path))
		bucket := filepath.Base(dir)
		if u.Path == "" || bucket == "." || bucket == string(filepath.Separator) {
			return nil, "", fmt.Errorf("archive url %q has no bucket directory", rawURL)
		}
		return NewLocalArchive(filepath.Dir(dir)), bucket, nil
	default:
		return nil, "", fmt.Errorf("unsupported archive scheme %q (use gs:// or file://)", u.Scheme)
	}
}

var (
	_ Archive = (*GCSArchive)(nil)
	_ Archive = (*LocalArchive)(nil)
)
