package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type Local struct {
	baseDir string
}

func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &Local{baseDir: baseDir}, nil
}

func (l *Local) Save(_ context.Context, filename string, r io.Reader) (Object, error) {
	tmp, sha, n, err := spool(l.baseDir, "upload-*.tmp", r)
	if err != nil {
		return Object{}, err
	}
	defer func() {
		tmp.Close()
		// no-op once renamed
		_ = os.Remove(tmp.Name())
	}()

	finalPath := filepath.Join(l.baseDir, objectName(sha, filename))
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return Object{}, fmt.Errorf("failed to finalize file: %w", err)
	}
	return Object{Path: finalPath, SHA256: sha, Size: n}, nil
}

func (l *Local) Open(_ context.Context, path string) (Blob, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileBlob{File: f, size: st.Size()}, nil
}

func (l *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
