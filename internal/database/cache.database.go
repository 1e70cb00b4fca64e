package database

import (
	"context"
	"fmt"
	"time"

	"lessonfolders/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

// Valkey logical database layout.
const (
	// GENERAL_CACHE_INDEX holds folder listings per scope.
	GENERAL_CACHE_INDEX = iota

	// USER_CACHE_INDEX holds directory lookups: users, roles, classrooms and enrollments.
	USER_CACHE_INDEX

	// EVENTS_CACHE_INDEX carries folder change notifications.
	EVENTS_CACHE_INDEX
)

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.ErrMsg("failed to initialize cache database: address or port is empty")
	}

	var cacheDB Cache
	clients := []struct {
		target *CacheClient
		index  int
		name   string
	}{
		{&cacheDB.General, GENERAL_CACHE_INDEX, "general"},
		{&cacheDB.User, USER_CACHE_INDEX, "user"},
		{&cacheDB.Events, EVENTS_CACHE_INDEX, "events"},
	}

	for _, c := range clients {
		client, err := valkey.NewClient(
			valkey.ClientOption{
				InitAddress: []string{fmt.Sprintf("%s:%d", address, port)},
				SelectDB:    c.index,
			},
		)
		if err != nil {
			return log.Err("failed to create valkey client", err, "cache", c.name)
		}
		*c.target = client
	}

	s.Cache = cacheDB

	if config.DatabaseCacheReset != -1 {
		go clearCacheDB(config.DatabaseCacheReset, cacheDB)
	}

	return nil
}

func cacheClientForIndex(index int, cacheDB Cache) (CacheClient, string, bool) {
	switch index {
	case GENERAL_CACHE_INDEX:
		return cacheDB.General, "General", true
	case USER_CACHE_INDEX:
		return cacheDB.User, "User", true
	case EVENTS_CACHE_INDEX:
		return cacheDB.Events, "Events", true
	default:
		return nil, "", false
	}
}

func clearCacheDB(index int, cacheDB Cache) {
	log := logger.New("database").File("cache.database").Function("clearCacheDB")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, dbName, ok := cacheClientForIndex(index, cacheDB)
	if !ok || client == nil {
		log.Warn("Invalid cache database index", "index", index)
		return
	}

	if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
		log.Er("Failed to clear cache database", err, "index", index, "dbName", dbName)
		return
	}

	log.Info("Successfully cleared cache database", "index", index, "dbName", dbName)
}
