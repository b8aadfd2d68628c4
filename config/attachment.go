package config

const (
	DefaultAttachmentMaxSizeBytes      int64 = 10 << 20
	DefaultAttachmentMaxFiles                = 10
	DefaultAttachmentUploadConcurrency       = 4
)

type Attachment struct {
	MaxSizeBytes      int64 `mapstructure:"MAX_SIZE_BYTES" json:"max_size_bytes" yaml:"max_size_bytes"`
	MaxFiles          int   `mapstructure:"MAX_FILES" json:"max_files" yaml:"max_files"`
	UploadConcurrency int   `mapstructure:"UPLOAD_CONCURRENCY" json:"upload_concurrency" yaml:"upload_concurrency"`
}

// WithDefaults 未設定的欄位補上預設值
func (a Attachment) WithDefaults() Attachment {
	if a.MaxSizeBytes <= 0 {
		a.MaxSizeBytes = DefaultAttachmentMaxSizeBytes
	}
	if a.MaxFiles <= 0 {
		a.MaxFiles = DefaultAttachmentMaxFiles
	}
	if a.UploadConcurrency <= 0 {
		a.UploadConcurrency = DefaultAttachmentUploadConcurrency
	}
	return a
}
