// Package iostore persists commits, files and their relations in a relational store.
package iostore

import (
	"fmt"
	"sync"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

// RelationStoreManager manages the RelationStore instance.
type RelationStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	relations    contract.RelationStore
}

var _ contract.StoreManager = &RelationStoreManager{} // Compile-time check

// GetRelationStore returns the RelationStore.
func (mgr *RelationStoreManager) GetRelationStore() contract.RelationStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.relations
}

// Global Manager instance for main logic.
var (
	Manager   = &RelationStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores opens the global relation store. Tables are created if they do not exist.
func InitStores(backend schema.DatabaseBackend, connStr string, opts ...Option) error {
	var initErr error

	initOnce.Do(func() {
		store, err := NewRelationStore(backend, connStr, opts...)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize relation store: %w", err)
			return
		}
		Manager.Lock()
		Manager.relations = store
		Manager.Unlock()
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.relations != nil {
			_ = Manager.relations.Close()
		}
	})
}
