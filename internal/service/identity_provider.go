package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"supportdesk/config"
	"supportdesk/internal/core"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v4"
)

const defaultUserInfoTimeout = 3 * time.Second

// IdentityProvider 驗證身分提供者簽發的 bearer token
type IdentityProvider struct {
	trace       *telemetry.Trace
	secret      []byte
	issuer      string
	userInfoURL string
	httpClient  *resty.Client
}

type userInfoResponse struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

func NewIdentityProvider(conf *config.Configuration, trace *telemetry.Trace) *IdentityProvider {
	timeout := defaultUserInfoTimeout
	if conf.Auth.UserInfoTimeout > 0 {
		timeout = time.Duration(conf.Auth.UserInfoTimeout) * time.Millisecond
	}
	return &IdentityProvider{
		trace:       trace,
		secret:      []byte(conf.Auth.JWTSecret),
		issuer:      strings.TrimSpace(conf.Auth.Issuer),
		userInfoURL: strings.TrimSpace(conf.Auth.UserInfoURL),
		httpClient: resty.New().
			SetHeader("User-Agent", "supportdesk/identity").
			SetTimeout(timeout),
	}
}

// Verify token 無效回 401；userinfo 查詢失敗回 503，不會自己湊出身分
func (p *IdentityProvider) Verify(ctx context.Context, token string) (_ core.Identity, enriched bool, returnedError error) {
	ctx, _, end := p.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return core.Identity{}, false, cErr.Unauthorized("missing bearer token")
	}
	if len(p.secret) == 0 {
		return core.Identity{}, false, cErr.IdentityUnavailable("identity verification is not configured")
	}

	claims := &core.IdentityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return core.Identity{}, false, cErr.InvalidSession("invalid identity token")
	}
	if p.issuer != "" && !claims.VerifyIssuer(p.issuer, true) {
		return core.Identity{}, false, cErr.InvalidSession("unexpected token issuer")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return core.Identity{}, false, cErr.InvalidSession("token has no subject")
	}

	identity := core.Identity{
		ExternalID: strings.TrimSpace(claims.Subject),
		Email:      claims.Email,
		FirstName:  claims.GivenName,
		LastName:   claims.FamilyName,
		AvatarURL:  claims.Picture,
	}
	if identity.Email != "" || p.userInfoURL == "" {
		return identity, false, nil
	}

	info, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		return core.Identity{}, false, err
	}
	if info.Sub != "" && info.Sub != identity.ExternalID {
		return core.Identity{}, false, cErr.InvalidSession("userinfo subject mismatch")
	}
	identity.Email = info.Email
	identity.FirstName = firstNonEmpty(identity.FirstName, info.GivenName)
	identity.LastName = firstNonEmpty(identity.LastName, info.FamilyName)
	identity.AvatarURL = firstNonEmpty(identity.AvatarURL, info.Picture)
	return identity, true, nil
}

func (p *IdentityProvider) fetchUserInfo(ctx context.Context, token string) (*userInfoResponse, error) {
	var info userInfoResponse
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&info).
		Get(p.userInfoURL)
	if err != nil {
		return nil, cErr.IdentityUnavailable(fmt.Sprintf("userinfo request failed: %v", err))
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, cErr.InvalidSession("identity provider rejected token")
	case resp.IsError():
		return nil, cErr.IdentityUnavailable(fmt.Sprintf("userinfo error (%d)", resp.StatusCode()))
	}
	return &info, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
