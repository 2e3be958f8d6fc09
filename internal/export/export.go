// Package export produces the read-only boundary representations of a schema
// document: the tool-calling descriptor, the resource identity, and the
// prompt context handed to an LLM collaborator.
package export

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/patchdoc/patchdoc/internal/document"
	"github.com/patchdoc/patchdoc/internal/schema"
)

// ToolDescriptor builds the function-calling definition for registering the
// patch gateway with an LLM tool API. Its parameter schema is kept in
// lock-step with what the patch engine accepts: a patch array of
// {op: replace|add, path, value} plus an optional message. Generation is a
// pure transformation of the schema.
func ToolDescriptor(s *schema.Schema) openai.FunctionDefinition {
	return openai.FunctionDefinition{
		Name: toolName(s),
		Description: fmt.Sprintf(
			"Apply field edits to the %q document. Paths are single-segment, e.g. /fieldId. %s",
			s.Name, fieldHint(s)),
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"patch": {
					Type:        jsonschema.Array,
					Description: "Ordered JSON Patch operations, applied atomically.",
					Items: &jsonschema.Definition{
						Type: jsonschema.Object,
						Properties: map[string]jsonschema.Definition{
							"op": {
								Type: jsonschema.String,
								Enum: []string{document.OpReplace, document.OpAdd},
							},
							"path": {
								Type:        jsonschema.String,
								Description: "Slash followed by a field id.",
							},
							"value": {
								Description: "New value for the field.",
							},
						},
						Required: []string{"op", "path", "value"},
					},
				},
				"message": {
					Type:        jsonschema.String,
					Description: "Optional human-readable note about the edits.",
				},
			},
			Required: []string{"patch"},
		},
	}
}

func toolName(s *schema.Schema) string {
	return Slug(s.Name) + "_apply_patch"
}

func fieldHint(s *schema.Schema) string {
	ids := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		ids[i] = f.ID
	}
	return "Editable fields: " + strings.Join(ids, ", ") + "."
}

// ResourceID derives the stable, document-type-scoped identifier used to
// address documents of this schema from an external resource protocol.
func ResourceID(s *schema.Schema) string {
	return "document://" + Slug(s.Name)
}

// Slug lowercases a schema name and collapses non-alphanumeric runs to
// single dashes.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// PromptContext assembles the field-by-field description an LLM needs to
// propose valid patches: label, id, type, constraints, and current value.
// It only reads the schema and document.
func PromptContext(d *document.Document) string {
	s := d.Schema()
	var b strings.Builder
	fmt.Fprintf(&b, "Document %q (version %d). Fields:\n", s.Name, s.Version)
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "- %s (path /%s, type %s", f.Label, f.ID, f.Type)
		if f.Type == schema.TypeEnum {
			fmt.Fprintf(&b, ", options: %s", strings.Join(f.Options, ", "))
		}
		if c := constraintText(f.Validation); c != "" {
			fmt.Fprintf(&b, ", %s", c)
		}
		b.WriteString("): ")
		b.WriteString(d.Get(f.ID).Display())
		b.WriteByte('\n')
	}
	b.WriteString("Edit fields only via the patch tool; use replace operations with single-segment paths.")
	return b.String()
}

func constraintText(v *schema.Validation) string {
	if v == nil {
		return ""
	}
	var parts []string
	if v.Min != nil {
		parts = append(parts, fmt.Sprintf("min %g", *v.Min))
	}
	if v.Max != nil {
		parts = append(parts, fmt.Sprintf("max %g", *v.Max))
	}
	if v.MinLength != nil {
		parts = append(parts, fmt.Sprintf("minLength %d", *v.MinLength))
	}
	if v.MaxLength != nil {
		parts = append(parts, fmt.Sprintf("maxLength %d", *v.MaxLength))
	}
	if v.Pattern != "" {
		parts = append(parts, "pattern "+v.Pattern)
	}
	if v.Required {
		parts = append(parts, "required")
	}
	return strings.Join(parts, ", ")
}
