// Package cache provides a disk-backed, concurrency-safe cache of
// preparsed HID report descriptors, keyed by the SHA-256 digest of the
// raw descriptor bytes. Parsing a descriptor is cheap, but a long-running
// service that repeatedly inspects the same handful of device models
// (spec.md 6.1's "reentrant, stateless" requirement) has no reason to
// redo it: this is the concrete home for that pooling idea.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/badger"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Digest returns the cache key for a raw report descriptor.
func Digest(descriptor []byte) string {
	sum := sha256.Sum256(descriptor)
	return hex.EncodeToString(sum[:])
}

// Stats reports cumulative cache activity.
type Stats struct {
	Hits   uint64
	Misses uint64
	Stores uint64
}

// Cache pairs an in-memory hot set (github.com/puzpuzpuz/xsync/v3.MapOf)
// with a badger-backed store so a process restart does not cold-start
// every device it has already seen.
type Cache struct {
	log *zap.Logger
	db  *badger.DB
	hot *xsync.MapOf[string, []byte]

	hits, misses, stores *atomic.Uint64
}

// Open opens (creating if necessary) a badger database at dir and wraps
// it with an in-memory hot set.
func Open(dir string, log *zap.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{l: log}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open preparsed data cache: %w", err)
	}
	return &Cache{
		log:    log,
		db:     db,
		hot:    xsync.NewMapOf[string, []byte](),
		hits:   atomic.NewUint64(0),
		misses: atomic.NewUint64(0),
		stores: atomic.NewUint64(0),
	}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached preparsed data blob for digest, if present.
func (c *Cache) Get(digest string) ([]byte, bool) {
	if blob, ok := c.hot.Load(digest); ok {
		c.hits.Inc()
		return blob, true
	}

	var blob []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(digest))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		c.misses.Inc()
		return nil, false
	}
	c.hot.Store(digest, blob)
	c.hits.Inc()
	return blob, true
}

// Put stores a preparsed data blob for digest, in both the hot set and
// the on-disk store.
func (c *Cache) Put(digest string, blob []byte) error {
	c.hot.Store(digest, blob)
	c.stores.Inc()
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(digest), blob)
	})
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Stores: c.stores.Load(),
	}
}

type badgerLogger struct {
	l *zap.Logger
}

func (l *badgerLogger) Errorf(msg string, args ...any) {
	l.l.Sugar().Errorf(msg, args...)
}

func (l *badgerLogger) Warningf(msg string, args ...any) {
	l.l.Sugar().Warnf(msg, args...)
}

func (l *badgerLogger) Infof(msg string, args ...any) {
	l.l.Sugar().Infof(msg, args...)
}

func (l *badgerLogger) Debugf(msg string, args ...any) {
	l.l.Sugar().Debugf(msg, args...)
}
