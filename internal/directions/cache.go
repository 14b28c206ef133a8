package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/valkey-io/valkey-go"
)

// Entry is a cached upstream answer.
type Entry struct {
	Result    *Result   `json:"result"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Cache stores upstream answers. Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error
	Purge(ctx context.Context) error
}

// MemoryCache is a bounded in-process LRU cache.
type MemoryCache struct {
	lru *lru.Cache[string, memoryItem]
	now func() time.Time
}

type memoryItem struct {
	entry     *Entry
	expiresAt time.Time
}

// NewMemoryCache creates an LRU cache holding at most size entries.
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, memoryItem](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return &MemoryCache{lru: c, now: time.Now}, nil
}

// Get returns the entry for key if it has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, error) {
	item, ok := c.lru.Get(key)
	if !ok {
		return nil, nil
	}
	if !c.now().Before(item.expiresAt) {
		c.lru.Remove(key)
		return nil, nil
	}
	return item.entry, nil
}

// Set stores e under key for ttl.
func (c *MemoryCache) Set(_ context.Context, key string, e *Entry, ttl time.Duration) error {
	c.lru.Add(key, memoryItem{entry: e, expiresAt: c.now().Add(ttl)})
	return nil
}

// Purge drops every entry.
func (c *MemoryCache) Purge(context.Context) error {
	c.lru.Purge()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// ValkeyCache stores entries as JSON in Valkey so several API instances
// share one upstream quota.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache connects to a Valkey server at addr.
func NewValkeyCache(addr, prefix string) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	if prefix == "" {
		prefix = "directions:"
	}
	return &ValkeyCache{client: client, prefix: prefix}, nil
}

// Get loads and decodes the entry for key.
func (c *ValkeyCache) Get(ctx context.Context, key string) (*Entry, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("valkey get: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decoding cached entry: %w", err)
	}
	return &e, nil
}

// Set encodes e and stores it with an expiry of ttl.
func (c *ValkeyCache) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	cmd := c.client.B().Set().Key(c.prefix + key).Value(valkey.BinaryString(b)).Ex(ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

// Purge deletes every key under the cache prefix.
func (c *ValkeyCache) Purge(ctx context.Context) error {
	var cursor uint64
	for {
		entry, err := c.client.Do(ctx, c.client.B().Scan().Cursor(cursor).Match(c.prefix+"*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("valkey scan: %w", err)
		}
		if len(entry.Elements) > 0 {
			if err := c.client.Do(ctx, c.client.B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				return fmt.Errorf("valkey del: %w", err)
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return nil
		}
	}
}

// Ping checks the connection.
func (c *ValkeyCache) Ping(ctx context.Context) error {
	if err := c.client.Do(ctx, c.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("valkey ping: %w", err)
	}
	return nil
}

// Close releases the client.
func (c *ValkeyCache) Close() {
	c.client.Close()
}
