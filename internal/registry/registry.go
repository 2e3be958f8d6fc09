// Package registry manages named live documents: schema catalog, in-memory
// instances, and optional Mongo-backed snapshots.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/patchdoc/patchdoc/internal/document"
	"github.com/patchdoc/patchdoc/internal/schema"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrUnknownSchema = errors.New("unknown schema")
)

// LiveDocument pairs a document instance with its registry identity.
type LiveDocument struct {
	ID         string
	SchemaName string
	Doc        *document.Document
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Service is the registry surface used by the handler layer.
type Service interface {
	RegisterSchema(s *schema.Schema) error
	SchemaNamed(name string) (*schema.Schema, bool)
	Schemas() []*schema.Schema

	Create(schemaName string, initial map[string]interface{}) (*LiveDocument, error)
	Get(id string) (*LiveDocument, error)
	List() ([]*LiveDocument, error)
	Delete(ctx context.Context, id string) error

	// Save persists the document's current values and history when a
	// snapshot repository is configured; otherwise it is a no-op.
	Save(ctx context.Context, id string) error
	// Restore rehydrates a previously saved document into the registry.
	Restore(ctx context.Context, id string) (*LiveDocument, error)
}

// NewService returns a Service backed by the in-memory store, persisting
// snapshots through snapshots when non-nil.
func NewService(snapshots SnapshotRepo) Service {
	return &service{
		schemas:   make(map[string]*schema.Schema),
		live:      NewMemoryRepo(),
		snapshots: snapshots,
	}
}

type service struct {
	mu        sync.RWMutex
	schemas   map[string]*schema.Schema
	live      *MemoryRepo
	snapshots SnapshotRepo
}

func (s *service) RegisterSchema(sc *schema.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.schemas[sc.Name]; dup {
		return fmt.Errorf("schema %q already registered", sc.Name)
	}
	s.schemas[sc.Name] = sc
	return nil
}

func (s *service) SchemaNamed(name string) (*schema.Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schemas[name]
	return sc, ok
}

func (s *service) Schemas() []*schema.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schema.Schema, 0, len(s.schemas))
	for _, sc := range s.schemas {
		out = append(out, sc)
	}
	return out
}

func (s *service) Create(schemaName string, initial map[string]interface{}) (*LiveDocument, error) {
	sc, ok := s.SchemaNamed(schemaName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, schemaName)
	}
	var doc *document.Document
	if len(initial) > 0 {
		d, err := document.NewWithValues(sc, initial)
		if err != nil {
			return nil, err
		}
		doc = d
	} else {
		doc = document.New(sc)
	}
	now := time.Now().UTC()
	ld := &LiveDocument{
		ID:         uuid.NewString(),
		SchemaName: schemaName,
		Doc:        doc,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.live.Put(ld)
	return ld, nil
}

func (s *service) Get(id string) (*LiveDocument, error) { return s.live.Get(id) }
func (s *service) List() ([]*LiveDocument, error)       { return s.live.List() }

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.live.Delete(id); err != nil {
		return err
	}
	if s.snapshots != nil {
		// best effort: the live instance is gone either way
		_ = s.snapshots.Delete(ctx, id)
	}
	return nil
}

func (s *service) Save(ctx context.Context, id string) error {
	if s.snapshots == nil {
		return nil
	}
	ld, err := s.live.Get(id)
	if err != nil {
		return err
	}
	sc := ld.Doc.Schema()
	snap := &Snapshot{
		ID:            ld.ID,
		SchemaName:    sc.Name,
		SchemaVersion: sc.Version,
		Fields:        sc.Fields,
		Values:        ld.Doc.Values(),
		History:       ld.Doc.History(),
		UpdatedAt:     time.Now().UTC(),
	}
	return s.snapshots.Save(ctx, snap)
}

func (s *service) Restore(ctx context.Context, id string) (*LiveDocument, error) {
	if s.snapshots == nil {
		return nil, ErrNotFound
	}
	snap, err := s.snapshots.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	sc, ok := s.SchemaNamed(snap.SchemaName)
	if !ok {
		// schema travelled with the snapshot; rebuild and register it
		rebuilt, err := schema.New(snap.SchemaName, snap.SchemaVersion, snap.Fields)
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", id, err)
		}
		if err := s.RegisterSchema(rebuilt); err != nil {
			return nil, err
		}
		sc = rebuilt
	}
	doc, err := document.NewWithValues(sc, snap.Values)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", id, err)
	}
	doc.RestoreHistory(snap.History)
	ld := &LiveDocument{
		ID:         snap.ID,
		SchemaName: snap.SchemaName,
		Doc:        doc,
		CreatedAt:  snap.UpdatedAt,
		UpdatedAt:  snap.UpdatedAt,
	}
	s.live.Put(ld)
	return ld, nil
}
