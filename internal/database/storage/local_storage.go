package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"supportdesk/config"

	"go.uber.org/zap"
)

const defaultLocalPath = "./data/attachments"

// LocalStorage 存在本機目錄，開發與測試用
type LocalStorage struct {
	basePath      string
	publicBaseURL string
	logger        *zap.Logger
}

func NewLocalStorage(conf config.Storage, logger *zap.Logger) (*LocalStorage, error) {
	logger = logger.With(zap.String("component", "local-storage"))

	basePath := strings.TrimSpace(conf.LocalPath)
	if basePath == "" {
		basePath = defaultLocalPath
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}
	publicBaseURL := strings.TrimSpace(conf.PublicBaseURL)
	if publicBaseURL == "" {
		publicBaseURL = "/attachments"
	}

	logger.Info("local storage initialized", zap.String("path", basePath), zap.String("public_base_url", publicBaseURL))
	return &LocalStorage{basePath: basePath, publicBaseURL: publicBaseURL, logger: logger}, nil
}

func (l *LocalStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	fullPath, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", copyErr)
	}
	if closeErr != nil {
		return closeErr
	}
	if size > 0 && written != size {
		_ = os.Remove(fullPath)
		return fmt.Errorf("short write: %d of %d bytes", written, size)
	}
	return ctx.Err()
}

func (l *LocalStorage) PublicURL(key string) string {
	return joinURL(l.publicBaseURL, key)
}

// BasePath 給 router 掛靜態檔案用
func (l *LocalStorage) BasePath() string {
	return l.basePath
}

// resolve 擋掉跳出根目錄的 key
func (l *LocalStorage) resolve(key string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(key))
	if cleaned == string(filepath.Separator) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.basePath, cleaned), nil
}
