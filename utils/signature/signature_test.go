package signature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"type":"user.created","data":{"id":"ext-1"}}`)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	ts := now.Add(-time.Minute).Format(time.RFC3339)

	tests := []struct {
		name      string
		header    string
		timestamp string
		body      []byte
		want      error
	}{
		{"valid without timestamp", Sign(secret, "", body), "", body, nil},
		{"valid with timestamp", Sign(secret, ts, body), ts, body, nil},
		{"bare hex accepted", Sign(secret, "", body)[len(Prefix):], "", body, nil},
		{"uppercase hex accepted", "SHA256=" + Sign(secret, "", body)[len(Prefix):], "", body, nil},
		{"missing", "", "", body, ErrMissingSignature},
		{"tampered body", Sign(secret, "", body), "", []byte(`{"type":"user.deleted"}`), ErrSignatureMismatch},
		{"wrong secret", Sign("other", "", body), "", body, ErrSignatureMismatch},
		{"timestamp not signed", Sign(secret, "", body), ts, body, ErrSignatureMismatch},
		{"stale", Sign(secret, now.Add(-time.Hour).Format(time.RFC3339), body), now.Add(-time.Hour).Format(time.RFC3339), body, ErrStaleTimestamp},
		{"garbled timestamp", Sign(secret, "yesterday", body), "yesterday", body, ErrInvalidTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(secret, tt.header, tt.timestamp, tt.body, now, 5*time.Minute)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
