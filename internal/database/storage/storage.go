package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"supportdesk/config"

	"go.uber.org/zap"
)

const (
	DriverS3    = "s3"
	DriverLocal = "local"
)

// ObjectStorage 附件的物件儲存；key 為 <conversationId>/<檔名>
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// NewStorage 依設定選 driver，未設定時用 local
func NewStorage(conf *config.Configuration, logger *zap.Logger) (ObjectStorage, error) {
	driver := strings.ToLower(strings.TrimSpace(conf.Storage.Driver))
	switch driver {
	case DriverS3:
		return NewS3Storage(context.Background(), conf.Storage, logger)
	case DriverLocal, "":
		return NewLocalStorage(conf.Storage, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
