package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/patchdoc/patchdoc/internal/schema"
)

// Supported patch verbs. This is a deliberate subset of RFC 6902: documents
// expose flat, top-level scalar fields, so add carries no insertion semantics
// and is treated identically to replace. remove, move, copy and test are
// rejected as unsupported.
const (
	OpReplace = "replace"
	OpAdd     = "add"
)

// Op is one JSON Patch operation targeting a single top-level field.
type Op struct {
	Op    string      `json:"op" bson:"op"`
	Path  string      `json:"path" bson:"path"`
	Value interface{} `json:"value" bson:"value,omitempty"`
}

// PatchResult reports the outcome of one ApplyPatch call. Applied is the
// number of operations committed; it is zero whenever Success is false.
type PatchResult struct {
	Success bool   `json:"success"`
	Applied int    `json:"applied"`
	Error   string `json:"error,omitempty"`
}

type stagedOp struct {
	fieldID string
	value   schema.Value
}

// ApplyPatch validates and applies an ordered operation sequence atomically.
// Every operation is checked against the schema before anything is committed;
// if any operation fails, the value map is left untouched and the result
// carries the index and reason of the first violation. On success the full
// sequence is committed in order and one history entry is recorded with the
// given source. Failed attempts are not recorded in history.
func (d *Document) ApplyPatch(ops []Op, source string) PatchResult {
	staged := make([]stagedOp, 0, len(ops))
	for i, op := range ops {
		st, err := d.stage(op)
		if err != nil {
			// 1-based so the rejection message reads naturally for callers
			return PatchResult{Error: fmt.Sprintf("operation %d: %v", i+1, err)}
		}
		staged = append(staged, st)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, st := range staged {
		if st.value.IsAbsent() {
			delete(d.values, st.fieldID)
		} else {
			d.values[st.fieldID] = st.value
		}
	}
	recorded := make([]Op, len(ops))
	copy(recorded, ops)
	d.history = append(d.history, HistoryEntry{
		Timestamp:  time.Now().UTC(),
		Source:     source,
		Operations: recorded,
		Outcome:    fmt.Sprintf("applied %d operation(s)", len(ops)),
	})
	return PatchResult{Success: true, Applied: len(ops)}
}

// stage checks a single operation without touching document state: verb,
// path shape, field resolution, then schema validation of the value.
func (d *Document) stage(op Op) (stagedOp, error) {
	if op.Op != OpReplace && op.Op != OpAdd {
		return stagedOp{}, fmt.Errorf("unsupported op %q (only %q and %q are accepted)", op.Op, OpReplace, OpAdd)
	}
	fieldID, err := parsePath(op.Path)
	if err != nil {
		return stagedOp{}, err
	}
	v, err := schema.FromJSON(op.Value)
	if err != nil {
		return stagedOp{}, fmt.Errorf("field %q: %v", fieldID, err)
	}
	cv, verr := d.schema.Validate(fieldID, v)
	if verr != nil {
		return stagedOp{}, verr
	}
	return stagedOp{fieldID: fieldID, value: cv}, nil
}

// parsePath accepts exactly "/<fieldId>": one segment, leading slash, no
// nesting into structured values.
func parsePath(path string) (string, error) {
	if path == "" || path[0] != '/' {
		return "", fmt.Errorf("malformed path %q: must start with '/'", path)
	}
	fieldID := path[1:]
	if fieldID == "" {
		return "", fmt.Errorf("malformed path %q: missing field id", path)
	}
	if strings.Contains(fieldID, "/") {
		return "", fmt.Errorf("malformed path %q: nested paths are not supported", path)
	}
	return fieldID, nil
}
