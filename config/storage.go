package config

type Storage struct {
	// s3 或 local
	Driver          string `mapstructure:"DRIVER" json:"driver" yaml:"driver"`
	Bucket          string `mapstructure:"BUCKET" json:"bucket" yaml:"bucket"`
	Region          string `mapstructure:"REGION" json:"region" yaml:"region"`
	Endpoint        string `mapstructure:"ENDPOINT" json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"ACCESS_KEY_ID" json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"SECRET_ACCESS_KEY" json:"secret_access_key" yaml:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"USE_PATH_STYLE" json:"use_path_style" yaml:"use_path_style"`
	// 對外公開的 URL 前綴，例如 CDN
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL" json:"public_base_url" yaml:"public_base_url"`
	// local driver 的根目錄
	LocalPath string `mapstructure:"LOCAL_PATH" json:"local_path" yaml:"local_path"`
}
