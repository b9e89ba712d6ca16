package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	solanago "github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

const (
	poolPrefix     = "pool/"
	positionPrefix = "position/"

	DefaultCacheSize = 1024
)

// Options configures Open. A nil FS uses the OS filesystem.
type Options struct {
	Path      string
	CacheSize int
	FS        vfs.FS
	Logger    *zap.Logger
}

// Store keeps pool and position records in pebble, keyed by
// "pool/<address>" and "position/<address>", with a read-through LRU per
// record kind.
type Store struct {
	db        *pebble.DB
	pools     *lru.Cache[solanago.PublicKey, state.Pool]
	positions *lru.Cache[solanago.PublicKey, state.Position]
	logger    *zap.Logger
}

func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}

	pebbleOpts := &pebble.Options{}
	if opts.FS != nil {
		pebbleOpts.FS = opts.FS
	}
	db, err := pebble.Open(opts.Path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", opts.Path, err)
	}

	pools, err := lru.New[solanago.PublicKey, state.Pool](size)
	if err != nil {
		db.Close()
		return nil, err
	}
	positions, err := lru.New[solanago.PublicKey, state.Position](size)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("store opened", zap.String("path", opts.Path), zap.Int("cache_size", size))
	return &Store{db: db, pools: pools, positions: positions, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.pools.Purge()
	s.positions.Purge()
	s.logger.Info("store closed")
	return err
}

func poolKey(key solanago.PublicKey) []byte {
	return []byte(poolPrefix + key.String())
}

func positionKey(key solanago.PublicKey) []byte {
	return []byte(positionPrefix + key.String())
}

// get copies the value out of pebble so it outlives the closer.
func (s *Store) get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", key, shared.ErrRecordNotFound)
		}
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// GetPool returns a copy of the stored pool; callers may mutate it freely.
func (s *Store) GetPool(ctx context.Context, key solanago.PublicKey) (*state.Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pool, ok := s.pools.Get(key); ok {
		return &pool, nil
	}
	s.logger.Debug("pool cache miss", zap.String("pool", key.String()))

	data, err := s.get(poolKey(key))
	if err != nil {
		return nil, err
	}
	pool, err := state.DecodePool(data)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", key, err)
	}
	s.pools.Add(key, *pool)
	return pool, nil
}

// GetPosition returns a copy of the stored position.
func (s *Store) GetPosition(ctx context.Context, key solanago.PublicKey) (*state.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if position, ok := s.positions.Get(key); ok {
		return &position, nil
	}
	s.logger.Debug("position cache miss", zap.String("position", key.String()))

	data, err := s.get(positionKey(key))
	if err != nil {
		return nil, err
	}
	position, err := state.DecodePosition(data)
	if err != nil {
		return nil, fmt.Errorf("position %s: %w", key, err)
	}
	s.positions.Add(key, *position)
	return position, nil
}

// ListPositionsByPool scans every position record and keeps those that
// belong to pool.
func (s *Store) ListPositionsByPool(ctx context.Context, pool solanago.PublicKey) (map[solanago.PublicKey]*state.Position, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(positionPrefix),
		UpperBound: prefixUpperBound(positionPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make(map[solanago.PublicKey]*state.Position)
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		address, err := solanago.PublicKeyFromBase58(string(iter.Key()[len(positionPrefix):]))
		if err != nil {
			return nil, fmt.Errorf("position key %q: %w", iter.Key(), err)
		}
		position, err := state.DecodePosition(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", address, err)
		}
		if position.Pool.Equals(pool) {
			out[address] = position
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePoolAndPositions writes the pool and positions in one synced batch.
// A nil position deletes its record. Caches are refreshed only after the
// batch commits.
func (s *Store) UpdatePoolAndPositions(ctx context.Context, key solanago.PublicKey, pool *state.Pool, positions map[solanago.PublicKey]*state.Position) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := s.db.NewBatch()
	defer batch.Close()

	if pool != nil {
		data, err := state.EncodePool(pool)
		if err != nil {
			return fmt.Errorf("pool %s: %w", key, err)
		}
		if err := batch.Set(poolKey(key), data, nil); err != nil {
			return err
		}
	}
	for address, position := range positions {
		if position == nil {
			if err := batch.Delete(positionKey(address), nil); err != nil {
				return err
			}
			continue
		}
		data, err := state.EncodePosition(position)
		if err != nil {
			return fmt.Errorf("position %s: %w", address, err)
		}
		if err := batch.Set(positionKey(address), data, nil); err != nil {
			return err
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		s.logger.Error("commit records", zap.String("pool", key.String()), zap.Int("positions", len(positions)), zap.Error(err))
		return fmt.Errorf("commit pool %s: %w", key, err)
	}

	if pool != nil {
		s.pools.Add(key, *pool)
	}
	for address, position := range positions {
		if position == nil {
			s.positions.Remove(address)
			continue
		}
		s.positions.Add(address, *position)
	}
	return nil
}

func prefixUpperBound(prefix string) []byte {
	end := []byte(prefix)
	end[len(end)-1]++
	return end
}
