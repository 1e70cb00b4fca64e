package services

import (
	"context"
	"sort"
	"sync"

	"lessonfolders/internal/database"
	"lessonfolders/internal/logger"
	"lessonfolders/internal/types"

	"gorm.io/gorm"
)

type scopeLock struct {
	slot chan struct{}
	refs int
}

// ScopeLockService serializes mutations per folder scope. Keys are always
// acquired in sorted order so multi-scope operations cannot deadlock.
type ScopeLockService struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
	log   logger.Logger
}

func NewScopeLockService() *ScopeLockService {
	return &ScopeLockService{
		locks: make(map[string]*scopeLock),
		log:   logger.New("ScopeLockService"),
	}
}

func normalizeScopeKeys(keys []string) []string {
	unique := make(map[string]struct{}, len(keys))
	sorted := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := unique[key]; ok {
			continue
		}
		unique[key] = struct{}{}
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)
	return sorted
}

// Lock blocks until every scope in keys is held or ctx is done. The returned
// func releases them and is safe to call once.
func (s *ScopeLockService) Lock(ctx context.Context, keys ...string) (func(), error) {
	sorted := normalizeScopeKeys(keys)
	acquired := make([]string, 0, len(sorted))

	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			s.release(acquired[i])
		}
	}

	for _, key := range sorted {
		lock := s.reference(key)
		select {
		case lock.slot <- struct{}{}:
			acquired = append(acquired, key)
		case <-ctx.Done():
			s.dereference(key)
			release()
			return nil, types.StoreFailure(ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (s *ScopeLockService) reference(key string) *scopeLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &scopeLock{slot: make(chan struct{}, 1)}
		s.locks[key] = lock
	}
	lock.refs++
	return lock
}

func (s *ScopeLockService) dereference(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		return
	}
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, key)
	}
}

func (s *ScopeLockService) release(key string) {
	s.mu.Lock()
	lock, ok := s.locks[key]
	s.mu.Unlock()
	if !ok {
		return
	}

	<-lock.slot
	s.dereference(key)
}

// held reports how many scope entries are currently tracked.
func (s *ScopeLockService) held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// LockInTransaction takes a transaction-scoped advisory lock per scope on
// PostgreSQL so that separate instances serialize on the same scope. Other
// dialects rely on the in-process lock alone.
func (s *ScopeLockService) LockInTransaction(ctx context.Context, tx *gorm.DB, keys ...string) error {
	if tx.Dialector.Name() != database.DriverPostgres {
		return nil
	}

	log := s.log.Function("LockInTransaction")
	for _, key := range normalizeScopeKeys(keys) {
		if err := tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
			return types.StoreFailure(log.Err("failed to take advisory lock", err, "scopeKey", key))
		}
	}
	return nil
}
