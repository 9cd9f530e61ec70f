package search

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

const (
	indexDir    = "search.bleve"
	versionFile = "search.version"
	batchSize   = 500
)

// Index is the post and variant index. Methods are safe for concurrent use;
// Reset excludes everything else while it swaps the underlying index.
type Index struct {
	mu     sync.RWMutex
	bleve  bleve.Index
	dir    string
	logger *slog.Logger
}

// Options configures Open.
type Options struct {
	// DataPath holds the index directory. Empty keeps the index in memory.
	DataPath string
	Logger   *slog.Logger
}

// Open opens the index under opts.DataPath, creating it when missing.
// An index that cannot be opened or was built with another schema version
// is discarded and recreated empty; callers reindex when Count is zero.
func Open(opts Options) (*Index, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	idx := &Index{logger: log}

	if opts.DataPath == "" {
		b, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		idx.bleve = b
		return idx, nil
	}

	idx.dir = filepath.Join(opts.DataPath, indexDir)
	stamp := filepath.Join(opts.DataPath, versionFile)

	b, err := reopen(idx.dir, stamp, log)
	if err != nil {
		return nil, err
	}
	if b == nil {
		if b, err = create(idx.dir); err != nil {
			return nil, err
		}
		if err := os.WriteFile(stamp, []byte(schemaVersion), 0o600); err != nil {
			log.Warn("could not stamp search index version", "error", err)
		}
		log.Info("created search index", "path", idx.dir, "schema", schemaVersion)
	}
	idx.bleve = b
	return idx, nil
}

// reopen returns the existing index, or nil when a fresh one is needed.
func reopen(dir, stamp string, log *slog.Logger) (bleve.Index, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	version, _ := os.ReadFile(stamp) //#nosec G304 -- path under data dir
	if string(version) == schemaVersion {
		b, err := bleve.Open(dir)
		if err == nil {
			log.Info("opened search index", "path", dir)
			return b, nil
		}
		log.Warn("search index unreadable, recreating", "path", dir, "error", err)
	} else {
		log.Info("search schema changed, recreating index", "from", string(version), "to", schemaVersion)
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("remove stale index: %w", err)
	}
	return nil, nil
}

func create(dir string) (bleve.Index, error) {
	if dir == "" {
		return bleve.NewMemOnly(newMapping())
	}
	b, err := bleve.New(dir, newMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return b, nil
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Close()
}

// Put adds or replaces one document.
func (i *Index) Put(d *Document) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.bleve.Index(d.ID, d.fields())
}

// PutAll adds or replaces documents, committing in batches.
func (i *Index) PutAll(docs []*Document) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for start := 0; start < len(docs); start += batchSize {
		chunk := docs[start:min(start+batchSize, len(docs))]
		batch := i.bleve.NewBatch()
		for _, d := range chunk {
			if err := batch.Index(d.ID, d.fields()); err != nil {
				return fmt.Errorf("batch %s: %w", d.ID, err)
			}
		}
		if err := i.bleve.Batch(batch); err != nil {
			return fmt.Errorf("commit batch at %d: %w", start, err)
		}
	}
	return nil
}

// Remove deletes documents by ID. Unknown IDs are ignored.
func (i *Index) Remove(ids ...string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	batch := i.bleve.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return i.bleve.Batch(batch)
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.bleve.DocCount()
}

// Reset replaces the index with an empty one.
func (i *Index) Reset() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.bleve.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if i.dir != "" {
		if err := os.RemoveAll(i.dir); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
	}
	b, err := create(i.dir)
	if err != nil {
		return err
	}
	i.bleve = b
	i.logger.Info("search index reset", "path", i.dir)
	return nil
}
