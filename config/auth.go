package config

type Auth struct {
	// 身分提供者簽發 JWT 的 HMAC secret
	JWTSecret string `mapstructure:"JWT_SECRET" json:"jwt_secret" yaml:"jwt_secret"`
	// 若有設定，token 的 iss 必須相符
	Issuer string `mapstructure:"ISSUER" json:"issuer" yaml:"issuer"`
	// token 缺少 email 時向身分提供者補查 profile
	UserInfoURL string `mapstructure:"USER_INFO_URL" json:"user_info_url" yaml:"user_info_url"`
	// userinfo 請求逾時（毫秒）
	UserInfoTimeout int64 `mapstructure:"USER_INFO_TIMEOUT" json:"user_info_timeout" yaml:"user_info_timeout"`
	// 佈建 webhook 的 HMAC-SHA256 簽章密鑰
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET" json:"webhook_secret" yaml:"webhook_secret"`
}
