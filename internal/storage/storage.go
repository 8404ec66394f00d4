package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrObjectNotFound 表示指定对象不存在。
var ErrObjectNotFound = errors.New("object not found")

// Store 是简历对象存储的统一接口，由本地磁盘或 MinIO 实现。
// Save 必须在业务记录落库之前完成；Delete 幂等。
type Store interface {
	Save(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	Open(ctx context.Context, objectKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectKey string) error
}

// IsValidObjectKey 拒绝空 key、路径穿越与反斜杠等可疑输入。
func IsValidObjectKey(key string) bool {
	if key == "" || !utf8.ValidString(key) {
		return false
	}
	if len(key) > 255 {
		return false
	}
	if strings.HasPrefix(key, "/") {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	return true
}
