// Package store persists PolyPost state in two key/value tiers.
//
// The local tier holds posts, variants and folders. The sync tier holds
// settings and permission grants. Collections are read and written whole.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the persisted collections.
const (
	KeyPosts            = "polypost_posts"
	KeyVariants         = "polypost_variants"
	KeyFolders          = "polypost_folders"
	KeySettings         = "polypost_settings"
	KeyPermissionGrants = "polypost_permission_grants"
	KeySchemaVersion    = "schema_version"
)

// ErrSchemaTooNew is returned when a tier was written by a newer server.
var ErrSchemaTooNew = errors.New("store: schema version is newer than this server supports")

// KV is a JSON-valued key/value tier.
type KV interface {
	// Get decodes the value at key into dest. It reports false when the key is absent.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// EnsureSchema writes the schema version on first open and rejects newer data.
func EnsureSchema(ctx context.Context, kv KV, current int) error {
	var version int
	found, err := kv.Get(ctx, KeySchemaVersion, &version)
	if err != nil {
		return err
	}
	if !found || version < current {
		return kv.Set(ctx, KeySchemaVersion, current)
	}
	if version > current {
		return ErrSchemaTooNew
	}
	return nil
}

// Every tier stores values as JSON.
func encode(key string, value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return raw, nil
}

func decode(key string, raw []byte, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
