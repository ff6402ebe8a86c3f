package state

import (
	"sync"
	"sync/atomic"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
)

// Registry tracks the live downloads of this process: one metadata entry and
// one cancel flag per id. Both maps are guarded by a single mutex; holders
// only look up, insert, or remove, never touching the filesystem or network
// while the lock is held.
type Registry struct {
	mu      sync.Mutex
	metas   map[string]types.DownloadMeta
	cancels map[string]*atomic.Bool
}

func NewRegistry() *Registry {
	return &Registry{
		metas:   make(map[string]types.DownloadMeta),
		cancels: make(map[string]*atomic.Bool),
	}
}

// Insert registers a download with a fresh cancel flag, replacing any
// previous entry under the same id. The flag is returned for the transfer
// workers to poll.
func (r *Registry) Insert(id string, meta types.DownloadMeta) *atomic.Bool {
	flag := &atomic.Bool{}
	r.mu.Lock()
	r.metas[id] = meta
	r.cancels[id] = flag
	r.mu.Unlock()
	return flag
}

// Meta returns the metadata for id.
func (r *Registry) Meta(id string) (types.DownloadMeta, bool) {
	r.mu.Lock()
	meta, ok := r.metas[id]
	r.mu.Unlock()
	return meta, ok
}

// CancelFlag returns the live cancel flag for id.
func (r *Registry) CancelFlag(id string) (*atomic.Bool, bool) {
	r.mu.Lock()
	flag, ok := r.cancels[id]
	r.mu.Unlock()
	return flag, ok
}

// ResetCancel installs and returns a fresh cancel flag for id, leaving the
// metadata untouched. Used when a registered download is restarted.
func (r *Registry) ResetCancel(id string) *atomic.Bool {
	flag := &atomic.Bool{}
	r.mu.Lock()
	r.cancels[id] = flag
	r.mu.Unlock()
	return flag
}

// RemoveMeta drops and returns the metadata entry for id.
func (r *Registry) RemoveMeta(id string) (types.DownloadMeta, bool) {
	r.mu.Lock()
	meta, ok := r.metas[id]
	if ok {
		delete(r.metas, id)
	}
	r.mu.Unlock()
	return meta, ok
}

// RemoveCancel drops the cancel flag entry for id.
func (r *Registry) RemoveCancel(id string) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}

// Remove drops both entries for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.metas, id)
	delete(r.cancels, id)
	r.mu.Unlock()
}

// Len returns the number of registered downloads.
func (r *Registry) Len() int {
	r.mu.Lock()
	n := len(r.metas)
	r.mu.Unlock()
	return n
}
