package middleware

import (
	"context"
	"errors"
	"time"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type userLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	UpdateLastSeen(ctx context.Context, id primitive.ObjectID, at time.Time) bool
}

type identityReconciler interface {
	Reconcile(ctx context.Context, identity core.Identity) (*model.User, error)
}

// User 把外部身分換成本地使用者；第一次出現的身分當場對應
type User struct {
	logger     *zap.Logger
	trace      *telemetry.Trace
	users      userLookup
	reconciler identityReconciler
	now        func() time.Time
}

func NewUser(
	logger *zap.Logger,
	trace *telemetry.Trace,
	userService *service.UserService,
	identityService *service.IdentityService,
) *User {
	return &User{
		logger:     logger,
		trace:      trace,
		users:      userService,
		reconciler: identityService,
		now:        time.Now,
	}
}

func (m *User) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span, end := m.trace.WithSpan(c.Request.Context(), string(core.SpanUserMiddleware))
		meta := core.TraceUserMiddlewareMeta{}

		identity, ok := IdentityFrom(c)
		if !ok {
			meta.Status = "missing_identity"
			m.trace.ApplyTraceAttributes(span, meta)
			cause := cErr.Unauthorized("missing identity")
			response.AbortWithError(c, cause)
			end(cause)
			return
		}

		user, err := m.users.GetByExternalID(ctx, identity.ExternalID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			meta.Reconciled = true
			user, err = m.reconciler.Reconcile(ctx, identity)
		}
		if err != nil {
			meta.Status = "user_lookup_failed"
			m.trace.ApplyTraceAttributes(span, meta)
			response.AbortWithError(c, err)
			end(err)
			return
		}

		meta.UserID = user.ID.Hex()
		meta.UserRole = string(user.Role)
		meta.UserStatus = string(user.Status)
		if user.Status != core.StatusActive {
			meta.Status = "invalid_user_status"
			m.trace.ApplyTraceAttributes(span, meta)
			cause := cErr.Forbidden("user is disabled")
			response.AbortWithError(c, cause)
			end(cause)
			return
		}

		// lastSeen 寫入失敗不擋請求
		meta.UpdatedLastSeen = m.users.UpdateLastSeen(ctx, user.ID, m.now())
		meta.Status = "success"
		m.trace.ApplyTraceAttributes(span, meta)
		end(nil)

		c.Set(ContextUserKey, user)
		c.Set(ContextViewerKey, core.Viewer{ID: user.ID, Role: user.Role})
		c.Next()
	}
}
