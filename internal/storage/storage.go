// Package storage keeps uploaded PDFs on local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docchat/config"
	s3client "docchat/pkg/s3"
)

var ErrNotFound = errors.New("storage: object not found")

// Object describes a stored upload.
type Object struct {
	Path   string
	SHA256 string
	Size   int64
}

// Blob is a random-access view of a stored file. Close releases any
// temporary copy.
type Blob interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

type Storage interface {
	Save(ctx context.Context, filename string, r io.Reader) (Object, error)
	Open(ctx context.Context, path string) (Blob, error)
	Delete(ctx context.Context, path string) error
}

// Open builds the backend selected by storage.type.
func Open(ctx context.Context, cfg *config.Config) (Storage, error) {
	sc := cfg.Storage
	switch sc.Type {
	case "local":
		return NewLocal(sc.LocalDir)
	case "s3":
		cli, err := s3client.NewClient(ctx, s3client.Options{
			Endpoint:  sc.S3.Endpoint,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
			Region:    sc.S3.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: s3 client: %w", err)
		}
		return NewS3(ctx, cli, sc.S3.Bucket)
	default:
		return nil, fmt.Errorf("storage: unknown type %q", sc.Type)
	}
}

type fileBlob struct {
	*os.File
	size    int64
	cleanup func()
}

func (b *fileBlob) Size() int64 { return b.size }

func (b *fileBlob) Close() error {
	err := b.File.Close()
	if b.cleanup != nil {
		b.cleanup()
	}
	return err
}

// spool copies r into a temp file under dir while hashing it. The caller
// owns the returned file and must remove it.
func spool(dir, pattern string, r io.Reader) (*os.File, string, int64, error) {
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	var hasher hash.Hash = sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	return tmp, hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// objectName is content addressed: identical uploads share one object.
func objectName(sha, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	return sha + ext
}
