package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// Prefix 簽章標頭格式：sha256=<hex>
const Prefix = "sha256="

var (
	ErrMissingSignature  = errors.New("missing signature")
	ErrInvalidTimestamp  = errors.New("invalid signature timestamp")
	ErrStaleTimestamp    = errors.New("signature timestamp outside allowed window")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Sign HMAC-SHA256；有 timestamp 時簽 "<timestamp>\n<body>"
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	if timestamp != "" {
		_, _ = mac.Write([]byte(timestamp))
		_, _ = mac.Write([]byte("\n"))
	}
	_, _ = mac.Write(body)
	return Prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify timestamp 為 RFC3339，可省略；maxSkew <= 0 時不檢查時間差
func Verify(secret, header, timestamp string, body []byte, now time.Time, maxSkew time.Duration) error {
	header = strings.ToLower(strings.TrimSpace(header))
	if header == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(header, Prefix) {
		header = Prefix + header
	}
	timestamp = strings.TrimSpace(timestamp)
	if timestamp != "" && maxSkew > 0 {
		ts, err := time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return ErrInvalidTimestamp
		}
		delta := now.Sub(ts)
		if delta < 0 {
			delta = -delta
		}
		if delta > maxSkew {
			return ErrStaleTimestamp
		}
	}
	if !hmac.Equal([]byte(header), []byte(Sign(secret, timestamp, body))) {
		return ErrSignatureMismatch
	}
	return nil
}
