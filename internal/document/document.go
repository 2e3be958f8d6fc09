// Package document implements the schema-gated value store and the patch
// mutation engine that is its single write path.
package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patchdoc/patchdoc/internal/schema"
)

// HistoryEntry is the audit record of one successfully applied patch.
type HistoryEntry struct {
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	Source     string    `json:"source" bson:"source"`
	Operations []Op      `json:"operations" bson:"operations"`
	Outcome    string    `json:"outcome" bson:"outcome"`
}

// Document owns the current values for one instance of a schema. All mutation
// of schema-tracked fields goes through ApplyPatch so the value map and the
// audit history cannot drift apart. A Document serializes its own access; it
// is safe for concurrent use, with one mutation in flight at a time.
type Document struct {
	mu      sync.RWMutex
	schema  *schema.Schema
	values  map[string]schema.Value
	history []HistoryEntry
}

// New creates a document populated with the schema's default values.
func New(s *schema.Schema) *Document {
	return &Document{schema: s, values: s.DefaultValues()}
}

// NewWithValues creates a document from caller-supplied initial values
// (JSON-decoded form). Initial values are validated exactly like a patch;
// any rejected value fails construction.
func NewWithValues(s *schema.Schema, initial map[string]interface{}) (*Document, error) {
	d := &Document{schema: s, values: s.DefaultValues()}
	for id, raw := range initial {
		v, err := schema.FromJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("initial value %q: %w", id, err)
		}
		cv, verr := s.Validate(id, v)
		if verr != nil {
			return nil, verr
		}
		if cv.IsAbsent() {
			delete(d.values, id)
		} else {
			d.values[id] = cv
		}
	}
	return d, nil
}

// Schema returns the immutable schema this document is bound to.
func (d *Document) Schema() *schema.Schema { return d.schema }

// Get returns the current value for a field, or an absent value when the
// field is unset or unknown. It never fails.
func (d *Document) Get(fieldID string) schema.Value {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if v, ok := d.values[fieldID]; ok {
		return v
	}
	return schema.Absent()
}

// Values returns a snapshot of the current value map in JSON-decoded form.
// Unset fields are omitted.
func (d *Document) Values() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]interface{}, len(d.values))
	for id, v := range d.values {
		out[id] = v.ToJSON()
	}
	return out
}

// ExportJSON serializes the full current value mapping. Unset fields are
// omitted so that replaying the export as replace operations against a
// freshly defaulted document reproduces this document's state.
func (d *Document) ExportJSON() (string, error) {
	b, err := json.Marshal(d.Values())
	if err != nil {
		return "", fmt.Errorf("export document: %w", err)
	}
	return string(b), nil
}

// ExportOps converts every currently set field into a replace operation,
// in schema field order.
func (d *Document) ExportOps() []Op {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ops := make([]Op, 0, len(d.values))
	for _, f := range d.schema.Fields {
		v, ok := d.values[f.ID]
		if !ok {
			continue
		}
		ops = append(ops, Op{Op: OpReplace, Path: "/" + f.ID, Value: v.ToJSON()})
	}
	return ops
}

// IntentSummary renders one "label: value" line per field in schema order.
// Unset fields render the literal "not set".
func (d *Document) IntentSummary() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var b strings.Builder
	for i, f := range d.schema.Fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Label)
		b.WriteString(": ")
		if v, ok := d.values[f.ID]; ok {
			b.WriteString(v.Display())
		} else {
			b.WriteString("not set")
		}
	}
	return b.String()
}

// History returns the applied-patch log, oldest first.
func (d *Document) History() []HistoryEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]HistoryEntry, len(d.history))
	copy(out, d.history)
	return out
}

// ClearHistory irreversibly discards all history entries.
func (d *Document) ClearHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = nil
}

// RestoreHistory replaces the history log, used when rehydrating a persisted
// document. Entries are ordered by timestamp.
func (d *Document) RestoreHistory(entries []HistoryEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = make([]HistoryEntry, len(entries))
	copy(d.history, entries)
	sort.SliceStable(d.history, func(i, j int) bool {
		return d.history[i].Timestamp.Before(d.history[j].Timestamp)
	})
}
