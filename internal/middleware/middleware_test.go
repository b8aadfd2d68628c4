package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"supportdesk/config"
	"supportdesk/internal/core"
	"supportdesk/internal/database/client"
	fluentdRepo "supportdesk/internal/database/fluentd/repository"
	"supportdesk/internal/database/mongodb/model"
	redisRepo "supportdesk/internal/database/redis/repository"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"
	"supportdesk/utils/signature"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newEngine 依序掛上 Recovery 與待測 middleware，最後回 200
func newEngine(t *testing.T, handlers ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	conf := &config.Configuration{}
	recovery := NewRecovery(
		zap.NewNop(),
		&telemetry.Trace{},
		&telemetry.Metric{},
		conf,
		fluentdRepo.NewLogRepository(conf, &client.NoopClient{}),
	)
	engine := gin.New()
	engine.Use(recovery.ErrorHandler())
	chain := append(handlers, func(c *gin.Context) {
		viewer, _ := ViewerFrom(c)
		identity, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"externalId": identity.ExternalID, "viewer": viewer.ID.Hex()})
	})
	engine.POST("/echo", chain...)
	return engine
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ---- Identity ----

type fakeVerifier struct {
	tokens map[string]core.Identity
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (core.Identity, bool, error) {
	if f.err != nil {
		return core.Identity{}, false, f.err
	}
	identity, ok := f.tokens[token]
	if !ok {
		return core.Identity{}, false, cErr.InvalidSession("token is not valid")
	}
	return identity, false, nil
}

func newIdentity(verifier TokenVerifier) *Identity {
	return &Identity{logger: zap.NewNop(), trace: &telemetry.Trace{}, verifier: verifier}
}

func TestIdentity_MissingTokenIsUnauthorized(t *testing.T) {
	engine := newEngine(t, newIdentity(&fakeVerifier{}).Handler())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, cErr.UNAUTHORIZED, decodeEnvelope(t, w).Code)
}

func TestIdentity_InvalidTokenIsInvalidSession(t *testing.T) {
	engine := newEngine(t, newIdentity(&fakeVerifier{}).Handler())

	req := httptest.NewRequest(http.MethodPost, "/echo", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, cErr.INVALID_SESSION, decodeEnvelope(t, w).Code)
}

func TestIdentity_BearerAndQueryToken(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]core.Identity{"good": {ExternalID: "ext-1"}}}
	engine := newEngine(t, newIdentity(verifier).Handler())

	req := httptest.NewRequest(http.MethodPost, "/echo", nil)
	req.Header.Set("Authorization", "bearer good")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"externalId":"ext-1"`)

	// EventSource 只能用 query
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo?access_token=good", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"externalId":"ext-1"`)
}

func TestIdentity_ProviderDownPassesThrough(t *testing.T) {
	engine := newEngine(t, newIdentity(&fakeVerifier{err: cErr.IdentityUnavailable("provider down")}).Handler())

	req := httptest.NewRequest(http.MethodPost, "/echo", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, cErr.IDENTITY_UNAVAILABLE, decodeEnvelope(t, w).Code)
}

// ---- User ----

type fakeUsers struct {
	byExternal map[string]*model.User
	lastSeen   map[primitive.ObjectID]time.Time
}

func (f *fakeUsers) GetByExternalID(_ context.Context, externalID string) (*model.User, error) {
	user, ok := f.byExternal[externalID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return user, nil
}

func (f *fakeUsers) UpdateLastSeen(_ context.Context, id primitive.ObjectID, at time.Time) bool {
	f.lastSeen[id] = at
	return true
}

type fakeReconciler struct {
	users *fakeUsers
	calls int
}

func (f *fakeReconciler) Reconcile(_ context.Context, identity core.Identity) (*model.User, error) {
	f.calls++
	user := &model.User{ID: primitive.NewObjectID(), ExternalID: identity.ExternalID, Role: core.RoleUser, Status: core.StatusActive}
	f.users.byExternal[identity.ExternalID] = user
	return user, nil
}

func withIdentity(externalID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextIdentityKey, core.Identity{ExternalID: externalID})
		c.Next()
	}
}

func newUserMiddleware(users *fakeUsers, reconciler identityReconciler) *User {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &User{
		logger:     zap.NewNop(),
		trace:      &telemetry.Trace{},
		users:      users,
		reconciler: reconciler,
		now:        func() time.Time { return now },
	}
}

func TestUser_ReconcilesUnknownIdentityOnce(t *testing.T) {
	users := &fakeUsers{byExternal: map[string]*model.User{}, lastSeen: map[primitive.ObjectID]time.Time{}}
	reconciler := &fakeReconciler{users: users}
	engine := newEngine(t, withIdentity("ext-9"), newUserMiddleware(users, reconciler).Handler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), users.byExternal["ext-9"].ID.Hex())
	}
	assert.Equal(t, 1, reconciler.calls)
	assert.Len(t, users.lastSeen, 1)
}

func TestUser_DisabledIsForbidden(t *testing.T) {
	disabled := &model.User{ID: primitive.NewObjectID(), ExternalID: "ext-off", Role: core.RoleStaff, Status: core.StatusDisabled}
	users := &fakeUsers{byExternal: map[string]*model.User{"ext-off": disabled}, lastSeen: map[primitive.ObjectID]time.Time{}}
	engine := newEngine(t, withIdentity("ext-off"), newUserMiddleware(users, &fakeReconciler{users: users}).Handler())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, cErr.FORBIDDEN, decodeEnvelope(t, w).Code)
	assert.Empty(t, users.lastSeen)
}

func TestUser_MissingIdentity(t *testing.T) {
	users := &fakeUsers{byExternal: map[string]*model.User{}, lastSeen: map[primitive.ObjectID]time.Time{}}
	engine := newEngine(t, newUserMiddleware(users, &fakeReconciler{users: users}).Handler())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ---- RateLimit ----

func withViewer(id primitive.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextViewerKey, core.Viewer{ID: id, Role: core.RoleUser})
		c.Next()
	}
}

func newRateLimit(t *testing.T, limit int) (*RateLimit, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	conf := &config.Configuration{}
	conf.RateLimit.MessagesPerWindow = limit
	conf.RateLimit.WindowSeconds = 30
	limiter := redisRepo.NewRateLimiterRepository(&telemetry.Trace{}, client.NewRedisClientFrom(zap.NewNop(), rdb))
	return NewRateLimit(zap.NewNop(), &telemetry.Trace{}, &telemetry.Metric{}, conf, limiter), mr
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	rl, _ := newRateLimit(t, 2)
	viewer := primitive.NewObjectID()
	engine := newEngine(t, withViewer(viewer), rl.Guard("message"))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(1-i), w.Header().Get("X-RateLimit-Remaining"))
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, cErr.RATE_LIMIT_EXCEEDED, decodeEnvelope(t, w).Code)
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)
	assert.LessOrEqual(t, retryAfter, 30)

	// 其他使用者各自計算
	other := newEngine(t, withViewer(primitive.NewObjectID()), rl.Guard("message"))
	w = httptest.NewRecorder()
	other.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_FailsOpenWhenRedisIsDown(t *testing.T) {
	rl, mr := newRateLimit(t, 1)
	mr.Close()
	engine := newEngine(t, withViewer(primitive.NewObjectID()), rl.Guard("message"))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_DisabledWhenLimitIsZero(t *testing.T) {
	rl, _ := newRateLimit(t, 0)
	engine := newEngine(t, rl.Guard("message"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ---- Webhook ----

func newWebhook(secret string, now time.Time) *Webhook {
	return &Webhook{logger: zap.NewNop(), trace: &telemetry.Trace{}, secret: secret, now: func() time.Time { return now }}
}

func TestWebhook_Signature(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	body := `{"type":"user.created","data":{"id":"ext-1"}}`
	ts := strconv.FormatInt(now.Unix(), 10)

	tests := []struct {
		name      string
		secret    string
		header    string
		timestamp string
		status    int
	}{
		{name: "valid with timestamp", secret: "s3cret", header: signature.Sign("s3cret", ts, []byte(body)), timestamp: ts, status: http.StatusOK},
		{name: "valid without timestamp", secret: "s3cret", header: signature.Sign("s3cret", "", []byte(body)), status: http.StatusOK},
		{name: "wrong secret", secret: "s3cret", header: signature.Sign("other", ts, []byte(body)), timestamp: ts, status: http.StatusUnauthorized},
		{name: "missing signature", secret: "s3cret", timestamp: ts, status: http.StatusUnauthorized},
		{name: "stale timestamp", secret: "s3cret", header: signature.Sign("s3cret", "1000", []byte(body)), timestamp: "1000", status: http.StatusUnauthorized},
		{name: "not configured", secret: "", header: signature.Sign("s3cret", ts, []byte(body)), timestamp: ts, status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			engine := newEngine(t, newWebhook(tt.secret, now).Handler(), func(c *gin.Context) {
				raw, err := c.GetRawData()
				require.NoError(t, err)
				seen = string(raw)
				c.Next()
			})
			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
			if tt.header != "" {
				req.Header.Set(WebhookSignatureHeader, tt.header)
			}
			if tt.timestamp != "" {
				req.Header.Set(WebhookTimestampHeader, tt.timestamp)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				// 驗證後 body 仍可讀
				assert.Equal(t, body, seen)
			}
		})
	}
}

// ---- Recovery ----

func TestRecovery_RendersEnvelopeForAppErrorsAndPanics(t *testing.T) {
	engine := newEngine(t)
	engine.GET("/not-found", func(c *gin.Context) {
		response.AbortWithError(c, cErr.ConversationNotFound("gone"))
	})
	engine.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
	engine.GET("/plain", func(c *gin.Context) {
		response.AbortWithError(c, errors.New("plain failure"))
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/not-found", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, cErr.CONVERSATION_NOT_FOUND, body.Code)
	assert.NotEmpty(t, body.RequestID)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, cErr.INTERNAL_ERROR, decodeEnvelope(t, w).Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRedactQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/x/stream?access_token=abc&since=1", nil)
	redacted := redactQuery(req.URL)
	assert.NotContains(t, redacted, "abc")
	assert.Contains(t, redacted, "since=1")
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	admin := NewAdmin(service.NewAccessService())

	tests := []struct {
		role   core.Role
		status int
	}{
		{role: core.RoleAdmin, status: http.StatusOK},
		{role: core.RoleStaff, status: http.StatusForbidden},
		{role: core.RoleUser, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			setViewer := func(c *gin.Context) {
				c.Set(ContextViewerKey, core.Viewer{ID: primitive.NewObjectID(), Role: tt.role})
				c.Next()
			}
			engine := newEngine(t, setViewer, admin.Handler())
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
