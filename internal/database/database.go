package database

import (
	client "supportdesk/internal/database/client"
	fluentdRepo "supportdesk/internal/database/fluentd/repository"
	mongoRepo "supportdesk/internal/database/mongodb/repository"
	redisRepo "supportdesk/internal/database/redis/repository"
	"supportdesk/internal/database/storage"

	"github.com/google/wire"
)

// ProviderSet 定義所有 DB Client 的依賴
var ProviderSet = wire.NewSet(
	client.NewMongoClient,
	client.NewRedisClient,
	client.NewFluentdClient,
	storage.NewStorage,
	mongoRepo.ProviderSet,
	redisRepo.ProviderSet,
	fluentdRepo.ProviderSet,
)
