package middleware

import (
	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"

	"github.com/gin-gonic/gin"
)

// gin.Context 上的 key
const (
	ContextIdentityKey = "identity"
	ContextViewerKey   = "viewer"
	ContextUserKey     = "user"
)

// IdentityFrom Identity middleware 驗證過的外部身分
func IdentityFrom(c *gin.Context) (core.Identity, bool) {
	raw, ok := c.Get(ContextIdentityKey)
	if !ok {
		return core.Identity{}, false
	}
	identity, ok := raw.(core.Identity)
	return identity, ok
}

// ViewerFrom User middleware 放入的本地使用者
func ViewerFrom(c *gin.Context) (core.Viewer, bool) {
	raw, ok := c.Get(ContextViewerKey)
	if !ok {
		return core.Viewer{}, false
	}
	viewer, ok := raw.(core.Viewer)
	return viewer, ok
}

func UserFrom(c *gin.Context) (*model.User, bool) {
	raw, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := raw.(*model.User)
	return user, ok && user != nil
}
