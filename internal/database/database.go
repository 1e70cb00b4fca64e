package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lessonfolders/config"
	"lessonfolders/internal/logger"

	"github.com/valkey-io/valkey-go"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type CacheClient valkey.Client

type Cache struct {
	General CacheClient
	User    CacheClient
	Events  CacheClient
}

type DB struct {
	SQL   *gorm.DB
	Cache Cache
	log   logger.Logger
}

func New(config config.Config) (DB, error) {
	log := logger.New("database").Function("New")

	log.Info("Initializing database", "driver", config.DatabaseDriver)
	db := &DB{log: log}

	err := db.initializeDB(config)
	if err != nil {
		return DB{}, log.Err("failed to initialize database", err)
	}

	if config.DatabaseCacheAddress == "" {
		log.Warn("No cache address configured, running without valkey")
		return *db, nil
	}

	err = db.initializeCacheDB(config)
	if err != nil {
		return DB{}, log.Err("failed to initialize cache database", err)
	}

	return *db, nil
}

// NewSQLite opens a SQLite-backed DB with no cache. Used for local development and tests.
func NewSQLite(dsn string) (DB, error) {
	log := logger.New("database").Function("NewSQLite")
	db := &DB{log: log}

	sqlDB, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return DB{}, log.Err("failed to open SQLite database with GORM", err, "dsn", dsn)
	}

	rawDB, err := sqlDB.DB()
	if err != nil {
		return DB{}, log.Err("failed to get database from GORM", err)
	}
	// SQLite allows a single writer.
	rawDB.SetMaxOpenConns(1)

	if err := sqlDB.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return DB{}, log.Err("failed to enable foreign keys", err)
	}

	db.SQL = sqlDB
	return *db, nil
}

func gormConfig() *gorm.Config {
	gormLog := gormLogger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		gormLogger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  gormLogger.Error,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	return &gorm.Config{
		Logger:                                   gormLog,
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	}
}

func (s *DB) initializeDB(config config.Config) error {
	switch config.DatabaseDriver {
	case DriverSQLite:
		db, err := NewSQLite(config.DatabaseSQLitePath)
		if err != nil {
			return err
		}
		s.SQL = db.SQL
		return nil
	default:
		return s.initializePostgresDB(gormConfig(), config)
	}
}

func (s *DB) initializePostgresDB(gormConfig *gorm.Config, config config.Config) error {
	log := s.log.Function("initializePostgresDB")

	if config.DatabaseHost == "" {
		return log.ErrMsg("database host is empty")
	}
	if config.DatabaseName == "" {
		return log.ErrMsg("database name is empty")
	}
	if config.DatabaseUser == "" {
		return log.ErrMsg("database user is empty")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		config.DatabaseHost,
		config.DatabasePort,
		config.DatabaseUser,
		config.DatabasePassword,
		config.DatabaseName,
	)

	log.Info(
		"Connecting to PostgreSQL",
		"host", config.DatabaseHost,
		"port", config.DatabasePort,
		"database", config.DatabaseName,
	)
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return log.Err("failed to open PostgreSQL database with GORM", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return log.Err("failed to get database from GORM", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return log.Err("failed to ping PostgreSQL database through GORM", err)
	}

	log.Info("Successfully connected to PostgreSQL with GORM")
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	s.SQL = db

	return nil
}

func (s *DB) Close() (err error) {
	if s.SQL != nil {
		sqlDB, dbErr := s.SQL.DB()
		if dbErr == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				err = s.log.Err("failed to close database", closeErr)
			}
		}
	}

	for _, client := range []CacheClient{s.Cache.General, s.Cache.User, s.Cache.Events} {
		if client != nil {
			client.Close()
		}
	}

	return err
}

func (s *DB) SQLWithContext(ctx context.Context) *gorm.DB {
	return s.SQL.WithContext(ctx)
}

func (s *DB) FlushAllCaches() error {
	log := s.log.Function("FlushAllCaches")
	log.Info("Flushing all cache databases")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cacheClients := []struct {
		client CacheClient
		name   string
	}{
		{s.Cache.General, "General"},
		{s.Cache.User, "User"},
		{s.Cache.Events, "Events"},
	}

	for _, cache := range cacheClients {
		if cache.client != nil {
			if err := cache.client.Do(ctx, cache.client.B().Flushdb().Build()).Error(); err != nil {
				return log.Err("Failed to flush cache database", err, "cache", cache.name)
			}
			log.Info("Successfully flushed cache database", "cache", cache.name)
		}
	}

	return nil
}
