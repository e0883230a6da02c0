package retrieval

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store owns the live Index. Searches read the current pointer; reloads build
// a complete replacement and swap it in atomically, so readers never observe
// a partially built index.
type Store struct {
	current atomic.Pointer[Index]
	path    string
	reloads singleflight.Group
	logger  *zap.Logger
}

// NewStore creates a store serving an empty index until the first Reload or Swap.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, logger: logger}
	s.current.Store(NewIndex(nil))
	return s
}

// Index returns the index currently in service.
func (s *Store) Index() *Index {
	return s.current.Load()
}

// Swap installs ix and returns the index it replaced.
func (s *Store) Swap(ix *Index) *Index {
	if ix == nil {
		ix = NewIndex(nil)
	}
	return s.current.Swap(ix)
}

// Reload rebuilds the index from the configured path. Concurrent callers
// share a single rebuild.
func (s *Store) Reload(ctx context.Context) (*Index, error) {
	if s.path == "" {
		return nil, errors.New("knowledge base path not configured")
	}
	ch := s.reloads.DoChan("reload", func() (interface{}, error) {
		kb, err := Load(s.path)
		if err != nil {
			return nil, err
		}
		ix := NewIndex(kb)
		s.Swap(ix)
		s.logger.Info("knowledge base indexed",
			zap.String("path", s.path),
			zap.Int("categories", len(ix.categories)),
			zap.Int("passages", ix.Len()))
		return ix, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Index), nil
	}
}
