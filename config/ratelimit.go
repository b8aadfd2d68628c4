package config

type RateLimit struct {
	// 每個視窗內允許送出的訊息數，0 代表不限流
	MessagesPerWindow int   `mapstructure:"MESSAGES_PER_WINDOW" json:"messages_per_window" yaml:"messages_per_window"`
	WindowSeconds     int64 `mapstructure:"WINDOW_SECONDS" json:"window_seconds" yaml:"window_seconds"`
}
