// Package registry holds the process-wide, read-only schema and knowledge
// base snapshot the pipeline reads on every question, reloading it in the
// background when the source files change on disk so a long-running
// process picks up schema/KB edits without a restart.
package registry

import (
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edr-t2sql/t2sql/internal/kb"
	"github.com/edr-t2sql/t2sql/internal/schema"
)

// snapshot is the atomically-swapped read-only view.
type snapshot struct {
	schema       *schema.Schema
	catalog      *kb.Catalog
	schemaMTime  time.Time
	catalogMTime time.Time
}

// Registry holds the current snapshot and reloads it on a ticker when the
// backing files' mtimes advance.
type Registry struct {
	schemaPath  string
	catalogPath string

	current atomic.Pointer[snapshot]

	stopOnce sync.Once
	stopChan chan struct{}
	ticker   *time.Ticker
}

// New loads the initial snapshot from schemaPath/catalogPath and returns a
// Registry ready for Schema()/Catalog() calls; it does not yet reload in
// the background until StartReload is called.
func New(schemaPath, catalogPath string) (*Registry, error) {
	r := &Registry{schemaPath: schemaPath, catalogPath: catalogPath, stopChan: make(chan struct{})}
	snap, err := r.load()
	if err != nil {
		return nil, err
	}
	r.current.Store(snap)
	return r, nil
}

func (r *Registry) load() (*snapshot, error) {
	s, err := schema.Load(r.schemaPath)
	if err != nil {
		return nil, err
	}
	c, err := kb.Load(r.catalogPath)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{schema: s, catalog: c}
	if fi, err := os.Stat(r.schemaPath); err == nil {
		snap.schemaMTime = fi.ModTime()
	}
	if fi, err := os.Stat(r.catalogPath); err == nil {
		snap.catalogMTime = fi.ModTime()
	}
	return snap, nil
}

// StartReload begins a background ticker that re-reads the schema/KB files
// every interval and atomically swaps in a new snapshot only if either
// file's mtime has advanced.
func (r *Registry) StartReload(interval time.Duration) {
	if interval <= 0 {
		return
	}
	r.ticker = time.NewTicker(interval)
	go func() {
		defer r.ticker.Stop()
		for {
			select {
			case <-r.ticker.C:
				r.reloadIfChanged()
			case <-r.stopChan:
				return
			}
		}
	}()
}

func (r *Registry) reloadIfChanged() {
	current := r.current.Load()

	schemaFI, err := os.Stat(r.schemaPath)
	schemaChanged := err == nil && schemaFI.ModTime().After(current.schemaMTime)

	catalogFI, err := os.Stat(r.catalogPath)
	catalogChanged := err == nil && catalogFI.ModTime().After(current.catalogMTime)

	if !schemaChanged && !catalogChanged {
		return
	}

	snap, err := r.load()
	if err != nil {
		log.Printf("registry: reload failed, keeping previous snapshot: %v", err)
		return
	}
	r.current.Store(snap)
	log.Printf("registry: reloaded schema/kb snapshot")
}

// Stop halts the background reload ticker. Safe to call even if
// StartReload was never called.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
}

// Schema returns the current schema snapshot.
func (r *Registry) Schema() *schema.Schema {
	return r.current.Load().schema
}

// Catalog returns the current KB catalog snapshot.
func (r *Registry) Catalog() *kb.Catalog {
	return r.current.Load().catalog
}
