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

// Local 将对象写入配置的上传目录，是默认的简历存储后端。
type Local struct {
	root string
}

// NewLocal 构造本地磁盘存储，并确保根目录存在。
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, errors.New("upload dir is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", abs, err)
	}
	return &Local{root: abs}, nil
}

func (l *Local) path(objectKey string) (string, error) {
	if !IsValidObjectKey(objectKey) {
		return "", fmt.Errorf("invalid object key %q", objectKey)
	}
	full := filepath.Join(l.root, filepath.FromSlash(objectKey))
	rel, err := filepath.Rel(l.root, full)
	if err != nil || rel == ".." || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("object key %q escapes upload dir", objectKey)
	}
	return full, nil
}

// Save 先写临时文件再重命名，避免读到半截的简历。
func (l *Local) Save(_ context.Context, objectKey string, reader io.Reader, _ int64, _ string) error {
	full, err := l.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write object %q: %w", objectKey, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close object %q: %w", objectKey, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize object %q: %w", objectKey, err)
	}
	return nil
}

func (l *Local) Open(_ context.Context, objectKey string) (io.ReadCloser, error) {
	full, err := l.path(objectKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object %q: %w", objectKey, err)
	}
	return f, nil
}

// Delete 删除对象；对象不存在视为成功（幂等）。
func (l *Local) Delete(_ context.Context, objectKey string) error {
	full, err := l.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove object %q: %w", objectKey, err)
	}
	return nil
}
