// Package interpret normalizes heterogeneous agent response payloads into a
// canonical patch and routes it through the document's patch engine.
package interpret

import (
	"encoding/json"
	"strings"

	"github.com/patchdoc/patchdoc/internal/document"
)

// Outcome is the closed three-way result of interpreting a payload.
type Outcome string

const (
	// OutcomeApplied means a recognized payload was decoded and its patch
	// (possibly empty) was applied.
	OutcomeApplied Outcome = "applied"
	// OutcomeValidationError means the payload shape was recognized but the
	// patch was rejected by the schema or the patch engine.
	OutcomeValidationError Outcome = "validation_error"
	// OutcomeParseError means no accepted payload shape decoded, or the text
	// was not valid JSON at all.
	OutcomeParseError Outcome = "parse_error"
)

// Result carries the interpretation outcome. Message is the human-readable
// text extracted from the payload, independent of which patch shape matched,
// so an insight-only response (no edits, non-empty message) is representable.
type Result struct {
	Outcome      Outcome `json:"outcome"`
	EditsApplied int     `json:"editsApplied"`
	Message      string  `json:"message,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

// legacyEdit is the {field, value} pair of the oldest accepted envelope.
type legacyEdit struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// Interpret decodes raw agent output and applies the resulting patch to doc,
// recording source in the audit history. Three envelope shapes are accepted,
// tried in priority order with the first structural match winning:
//
//  1. {"patch": [...], "message": "..."} (preferred)
//  2. [...] as a bare patch array, no message
//  3. {"edits": [{"field": ..., "value": ...}], "message": "..."} (legacy);
//     each edit becomes a replace at /<field>
//
// A structurally matched payload whose values are then rejected is a
// validation error, never a reason to try the next shape.
func Interpret(doc *document.Document, raw string, source string) Result {
	ops, msg, perr := Decode(raw)
	if perr != "" {
		return Result{Outcome: OutcomeParseError, Reason: perr}
	}
	res := doc.ApplyPatch(ops, source)
	if !res.Success {
		return Result{Outcome: OutcomeValidationError, Message: msg, Reason: res.Error}
	}
	return Result{Outcome: OutcomeApplied, EditsApplied: res.Applied, Message: msg}
}

// Decode extracts the canonical patch and optional message from raw text
// without applying anything. A non-empty third return is the parse-error
// reason; it is empty exactly when a shape matched.
func Decode(raw string) ([]document.Op, string, string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, "", "empty payload"
	}

	switch trimmed[0] {
	case '{':
		return decodeObject(trimmed)
	case '[':
		var ops []document.Op
		if err := json.Unmarshal([]byte(trimmed), &ops); err != nil {
			return nil, "", "bare array did not decode as a patch: " + err.Error()
		}
		return ops, "", ""
	}
	return nil, "", "payload is not a JSON object or array"
}

func decodeObject(trimmed string) ([]document.Op, string, string) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return nil, "", "invalid JSON: " + err.Error()
	}

	// message is extracted regardless of which patch shape matches
	var msg string
	if rawMsg, ok := envelope["message"]; ok {
		_ = json.Unmarshal(rawMsg, &msg)
	}

	if rawPatch, ok := envelope["patch"]; ok {
		var ops []document.Op
		if err := json.Unmarshal(rawPatch, &ops); err != nil {
			return nil, msg, `"patch" is not an operation array: ` + err.Error()
		}
		return ops, msg, ""
	}

	if rawEdits, ok := envelope["edits"]; ok {
		var edits []legacyEdit
		if err := json.Unmarshal(rawEdits, &edits); err != nil {
			return nil, msg, `"edits" is not a {field, value} array: ` + err.Error()
		}
		ops := make([]document.Op, len(edits))
		for i, e := range edits {
			ops[i] = document.Op{Op: document.OpReplace, Path: "/" + e.Field, Value: e.Value}
		}
		return ops, msg, ""
	}

	if msg != "" {
		// message-only object: representable as an empty patch
		return nil, msg, ""
	}
	return nil, "", `object has neither "patch" nor "edits"`
}
