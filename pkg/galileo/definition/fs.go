package definition

import (
	"context"
	"strings"
	"sync"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/google/uuid"
)

// DefaultFS is an in-memory stand-in for the pinned FS collaborator
// (§6): good enough to exercise the whole node without a real on-disk
// storage/indexing engine. Paths are synthetic — a random uuid, never
// touching a filesystem — since there is nothing on disk to name.
type DefaultFS struct {
	mu       sync.RWMutex
	blocks   map[string]types.Block
	readOnly bool
}

// NewDefaultFS builds an empty store. readOnly mirrors the pinned
// IsReadOnly() check — when true, StoreBlock always fails.
func NewDefaultFS(readOnly bool) *DefaultFS {
	return &DefaultFS{
		blocks:   make(map[string]types.Block),
		readOnly: readOnly,
	}
}

func (f *DefaultFS) StoreBlock(_ context.Context, block types.Block) (string, error) {
	if f.readOnly {
		return "", types.ErrFileSystem
	}
	path := uuid.NewString()
	f.mu.Lock()
	f.blocks[path] = block
	f.mu.Unlock()
	return path, nil
}

// Query evaluates query as a case-insensitive substring match against
// every metadata key and value — a placeholder feature language standing in for
// the real predicate grammar the pinned FS interface leaves unspecified.
func (f *DefaultFS) Query(_ context.Context, query string) ([]types.Metadata, error) {
	needle := strings.ToLower(query)
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []types.Metadata
	for _, block := range f.blocks {
		if metadataMatches(block.Metadata, needle) {
			out = append(out, block.Metadata)
		}
	}
	return out, nil
}

func metadataMatches(m types.Metadata, needle string) bool {
	for k, v := range m {
		if strings.Contains(strings.ToLower(k), needle) || strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func (f *DefaultFS) LoadMetadata(_ context.Context, path string) (types.Metadata, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	block, ok := f.blocks[path]
	if !ok {
		return nil, types.ErrIO
	}
	return block.Metadata, nil
}

func (f *DefaultFS) LoadBlock(_ context.Context, path string) (types.Block, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	block, ok := f.blocks[path]
	if !ok {
		return types.Block{}, types.ErrIO
	}
	return block, nil
}

func (f *DefaultFS) IsReadOnly() bool { return f.readOnly }

func (f *DefaultFS) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks = nil
}
