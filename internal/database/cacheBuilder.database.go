package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type KeyType interface {
	string | []string | uuid.UUID
}

// CacheBuilder is a fluent wrapper over a valkey client. A nil client turns
// reads into misses and writes into no-ops.
type CacheBuilder struct {
	cache      valkey.Client
	key        string
	keys       []string
	value      string
	ttl        time.Duration
	ctx        context.Context
	ctxTimeout time.Duration
	err        error
}

func NewCacheBuilder[K KeyType](cache valkey.Client, key K) *CacheBuilder {
	cacheBuilder := CacheBuilder{
		cache:      cache,
		ttl:        1 * time.Hour,
		ctxTimeout: 5 * time.Second,
		ctx:        context.Background(),
	}

	switch k := any(key).(type) {
	case string:
		cacheBuilder.key = k
	case uuid.UUID:
		cacheBuilder.key = k.String()
	case []string:
		cacheBuilder.keys = k
	}

	return &cacheBuilder
}

func (cb *CacheBuilder) Key() string {
	return cb.key
}

func (cb *CacheBuilder) Keys() []string {
	return cb.keys
}

func (cb *CacheBuilder) WithValue(value string) *CacheBuilder {
	cb.value = value
	return cb
}

func (cb *CacheBuilder) WithStruct(value any) *CacheBuilder {
	bytes, err := json.Marshal(value)
	if err != nil {
		cb.err = fmt.Errorf("failed to marshal value to json: %w", err)
		return cb
	}

	cb.value = string(bytes)
	return cb
}

func (cb *CacheBuilder) WithHashPattern(hashPattern string) *CacheBuilder {
	if hashPattern != "" {
		cb.key = fmt.Sprintf(hashPattern, cb.key)
	}

	return cb
}

func (cb *CacheBuilder) WithHash(hash string) *CacheBuilder {
	if hash == "" {
		return cb
	}

	if cb.key != "" {
		cb.key = fmt.Sprintf("%s:%s", hash, cb.key)
	}
	for i, key := range cb.keys {
		cb.keys[i] = fmt.Sprintf("%s:%s", hash, key)
	}

	return cb
}

func (cb *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	if ttl > 0 {
		cb.ttl = ttl
	}
	return cb
}

func (cb *CacheBuilder) WithContext(ctx context.Context) *CacheBuilder {
	if ctx != nil {
		cb.ctx = ctx
	}
	return cb
}

func (cb *CacheBuilder) WithTimeout(timeout time.Duration) *CacheBuilder {
	cb.ctxTimeout = timeout
	return cb
}

func (cb *CacheBuilder) WithKeys(keys []string) *CacheBuilder {
	cb.keys = keys
	return cb
}

func (cb *CacheBuilder) Set() error {
	if cb.err != nil {
		return cb.err
	}

	if cb.key == "" {
		return fmt.Errorf("key is required")
	}

	if cb.value == "" {
		return fmt.Errorf("value is required")
	}

	if cb.cache == nil {
		return nil
	}

	ctx, cancel := cb.createTimeoutContext()
	defer cancel()

	return cb.cache.Do(ctx, cb.cache.B().Set().Key(cb.key).Value(cb.value).Ex(cb.ttl).Build()).
		Error()
}

func (cb *CacheBuilder) Get(result any) (bool, error) {
	if cb.err != nil {
		return false, cb.err
	}

	if cb.key == "" {
		return false, fmt.Errorf("key is required")
	}

	if cb.cache == nil {
		return false, nil
	}

	ctx, cancel := cb.createTimeoutContext()
	defer cancel()

	data, err := cb.cache.Do(ctx, cb.cache.B().Get().Key(cb.key).Build()).ToString()
	if err != nil {
		if isKeyNotFoundError(err) {
			return false, nil
		}
		return false, err
	}

	if data == "" {
		return false, nil
	}

	err = json.Unmarshal([]byte(data), result)
	if err != nil {
		return false, err
	}

	return true, nil
}

// Delete removes the builder's key, or every key when built with a key list.
func (cb *CacheBuilder) Delete() error {
	if cb.err != nil {
		return cb.err
	}

	keys := cb.keys
	if cb.key != "" {
		keys = append([]string{cb.key}, keys...)
	}
	if len(keys) == 0 {
		return fmt.Errorf("key is required")
	}

	if cb.cache == nil {
		return nil
	}

	ctx, cancel := cb.createTimeoutContext()
	defer cancel()

	return cb.cache.Do(ctx, cb.cache.B().Del().Key(keys...).Build()).Error()
}

func (cb *CacheBuilder) createTimeoutContext() (context.Context, context.CancelFunc) {
	if deadline, ok := cb.ctx.Deadline(); ok {
		if time.Until(deadline) < cb.ctxTimeout {
			return context.WithCancel(cb.ctx)
		}
	}
	return context.WithTimeout(cb.ctx, cb.ctxTimeout)
}

func isKeyNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	return valkey.IsValkeyNil(err) || strings.Contains(err.Error(), "key not found")
}
