package service

import (
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	storeBindings,
	NewHealthService,
	NewAccessService,
	NewIdentityProvider,
	NewIdentityService,
	NewUserService,
	NewConversationService,
	NewAttachmentService,
	NewRealtimeService,
	NewMessageService,
)
