package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"supportdesk/config"
	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	"supportdesk/internal/database/storage"
	"supportdesk/internal/telemetry"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 附件被退回的原因
const (
	RejectTooLarge     = "too_large"
	RejectTooMany      = "too_many_files"
	RejectEmpty        = "empty"
	RejectUnreadable   = "unreadable"
	RejectUploadFailed = "upload_failed"
)

const maxExtensionLength = 10

// AttachmentFile 上傳前的檔案；Open 每次呼叫回傳新的 reader
type AttachmentFile struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type AttachmentRejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type AttachmentService struct {
	trace   *telemetry.Trace
	metric  *telemetry.Metric
	logger  *zap.Logger
	storage storage.ObjectStorage
	limits  config.Attachment
	now     func() time.Time
}

func NewAttachmentService(
	conf *config.Configuration,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	logger *zap.Logger,
	objectStorage storage.ObjectStorage,
) *AttachmentService {
	return &AttachmentService{
		trace:   trace,
		metric:  metric,
		logger:  logger,
		storage: objectStorage,
		limits:  conf.Attachment.WithDefaults(),
		now:     time.Now,
	}
}

type preparedFile struct {
	name        string
	contentType string
	data        []byte
}

// Attach 超過大小或數量的檔案逐一退回，其餘並行上傳；只回傳上傳成功的附件，順序與輸入相同
func (s *AttachmentService) Attach(
	ctx context.Context,
	conversationID primitive.ObjectID,
	files []AttachmentFile,
) (_ []model.Attachment, _ []AttachmentRejection, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	meta := core.TraceAttachmentMeta{ConversationID: conversationID.Hex(), Files: len(files)}
	rejections := []AttachmentRejection{}
	reject := func(name, reason string) {
		rejections = append(rejections, AttachmentRejection{Name: name, Reason: reason})
		s.metric.IncAttachmentRejected(reason)
	}

	accepted := make([]preparedFile, 0, len(files))
	for i, file := range files {
		name := filepath.Base(strings.TrimSpace(file.Name))
		if i >= s.limits.MaxFiles {
			reject(name, RejectTooMany)
			continue
		}
		if file.Size > s.limits.MaxSizeBytes {
			reject(name, RejectTooLarge)
			continue
		}
		data, err := s.read(file)
		switch {
		case err != nil:
			s.logger.Warn("attachment unreadable", zap.String("conversationId", conversationID.Hex()), zap.String("name", name), zap.Error(err))
			reject(name, RejectUnreadable)
			continue
		case int64(len(data)) > s.limits.MaxSizeBytes:
			// 宣告的大小不可信，以實際讀到的為準
			reject(name, RejectTooLarge)
			continue
		case len(data) == 0:
			reject(name, RejectEmpty)
			continue
		}
		accepted = append(accepted, preparedFile{name: name, contentType: contentTypeOf(file.MimeType, data), data: data})
	}

	uploaded := make([]*model.Attachment, len(accepted))
	var g errgroup.Group
	g.SetLimit(s.limits.UploadConcurrency)
	for i, file := range accepted {
		key := s.objectKey(conversationID, file.name)
		g.Go(func() error {
			err := s.storage.Upload(ctx, key, bytes.NewReader(file.data), int64(len(file.data)), file.contentType)
			if err != nil {
				s.logger.Error("attachment upload failed",
					zap.String("conversationId", conversationID.Hex()),
					zap.String("name", file.name),
					zap.String("key", key),
					zap.Error(err))
				return nil
			}
			uploaded[i] = &model.Attachment{
				Name: file.name,
				URL:  s.storage.PublicURL(key),
				Type: file.contentType,
				Size: int64(len(file.data)),
			}
			return nil
		})
	}
	_ = g.Wait()

	attachments := make([]model.Attachment, 0, len(accepted))
	for i, a := range uploaded {
		if a == nil {
			meta.Failed++
			reject(accepted[i].name, RejectUploadFailed)
			continue
		}
		attachments = append(attachments, *a)
	}
	meta.Uploaded = len(attachments)
	meta.Rejected = len(rejections)
	s.trace.ApplyTraceAttributes(span, meta)
	return attachments, rejections, nil
}

// read 最多讀 limit+1 bytes，足以判斷是否超限
func (s *AttachmentService) read(file AttachmentFile) ([]byte, error) {
	if file.Open == nil {
		return nil, fmt.Errorf("no content")
	}
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(io.LimitReader(reader, s.limits.MaxSizeBytes+1))
}

// objectKey <conversationId>/<unix 毫秒>-<ulid><副檔名>
func (s *AttachmentService) objectKey(conversationID primitive.ObjectID, name string) string {
	id := ulid.Make()
	return fmt.Sprintf("%s/%d-%s%s",
		conversationID.Hex(),
		s.now().UnixMilli(),
		strings.ToLower(id.String()),
		safeExtension(name))
}

func safeExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > maxExtensionLength {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// contentTypeOf 前端沒給或給 octet-stream 時用內容判斷
func contentTypeOf(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}
