package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV is the local tier, one badger key per collection.
type BadgerKV struct {
	db   *badger.DB
	path string
	log  *slog.Logger
}

// OpenBadger opens the local tier at path, or in memory when path is empty.
func OpenBadger(path string, log *slog.Logger) (*BadgerKV, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	opts := badger.DefaultOptions(path).
		WithInMemory(path == "").
		WithLogger(nil).
		WithSyncWrites(true).
		WithCompactL0OnClose(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local tier: %w", err)
	}
	log.Info("local tier opened", "path", path)
	return &BadgerKV{db: db, path: path, log: log}, nil
}

// Get implements KV.
func (b *BadgerKV) Get(ctx context.Context, key string, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return true, decode(key, raw, dest)
}

// Set implements KV.
func (b *BadgerKV) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encode(key, value)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

// Delete implements KV. Absent keys are not an error.
func (b *BadgerKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close flushes and closes the database.
func (b *BadgerKV) Close() error {
	b.log.Info("closing local tier", "path", b.path)
	return b.db.Close()
}
