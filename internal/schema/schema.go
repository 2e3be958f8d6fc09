// Package schema defines the immutable field schema for agent-editable
// documents and validates dynamically-typed values against it.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// FieldType is the closed set of supported field types.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeEnum    FieldType = "enum"
	TypeDate    FieldType = "date"
)

// Validation holds the optional per-field constraints. Pointer fields
// distinguish "unset" from zero. Numeric bounds apply to number fields,
// length bounds and pattern to string-valued fields; constraints that are
// not meaningful for a value kind are ignored.
type Validation struct {
	Min       *float64 `json:"min,omitempty" bson:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" bson:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty" bson:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" bson:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty" bson:"pattern,omitempty"`
	Required  bool     `json:"required,omitempty" bson:"required,omitempty"`
}

// Field is one named, typed slot in a schema.
type Field struct {
	ID         string      `json:"id" bson:"id"`
	Label      string      `json:"label" bson:"label"`
	Type       FieldType   `json:"type" bson:"type"`
	Options    []string    `json:"options,omitempty" bson:"options,omitempty"`
	Default    interface{} `json:"default,omitempty" bson:"default,omitempty"`
	Validation *Validation `json:"validation,omitempty" bson:"validation,omitempty"`
}

// Schema is the immutable description of a document type. Construct with New;
// do not mutate Fields afterwards. A Schema is safe to share across any number
// of documents without synchronization.
type Schema struct {
	Name    string  `json:"name"`
	Version int     `json:"version"`
	Fields  []Field `json:"fields"`

	index    map[string]int
	patterns map[string]*regexp.Regexp
}

// New builds a Schema and checks its structural invariants: non-empty name,
// unique field ids, known field types, non-empty enum option lists, defaults
// that satisfy the field's own validation, and compilable patterns. All
// violations are reported together.
func New(name string, version int, fields []Field) (*Schema, error) {
	s := &Schema{
		Name:     name,
		Version:  version,
		Fields:   fields,
		index:    make(map[string]int, len(fields)),
		patterns: make(map[string]*regexp.Regexp),
	}

	var errs []error
	if name == "" {
		errs = append(errs, errors.New("schema name is required"))
	}
	for i, f := range fields {
		if f.ID == "" {
			errs = append(errs, fmt.Errorf("fields[%d]: id is required", i))
			continue
		}
		if _, dup := s.index[f.ID]; dup {
			errs = append(errs, fmt.Errorf("fields[%d]: duplicate id %q", i, f.ID))
			continue
		}
		s.index[f.ID] = i

		switch f.Type {
		case TypeText, TypeNumber, TypeBoolean, TypeDate:
		case TypeEnum:
			if len(f.Options) == 0 {
				errs = append(errs, fmt.Errorf("field %q: enum requires at least one option", f.ID))
			}
		default:
			errs = append(errs, fmt.Errorf("field %q: unknown type %q", f.ID, f.Type))
			continue
		}

		if f.Validation != nil && f.Validation.Pattern != "" {
			re, err := regexp.Compile(f.Validation.Pattern)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %q: invalid pattern: %v", f.ID, err))
			} else {
				s.patterns[f.ID] = re
			}
		}
	}

	// Defaults must pass the same validation applied to mutations.
	if len(errs) == 0 {
		for _, f := range fields {
			if f.Default == nil {
				continue
			}
			v, err := FromJSON(f.Default)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %q: default: %v", f.ID, err))
				continue
			}
			if _, verr := s.Validate(f.ID, v); verr != nil {
				errs = append(errs, fmt.Errorf("field %q: default rejected: %v", f.ID, verr))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// FieldNamed looks up a field by id. A missing field is a valid "not found"
// result, not an error.
func (s *Schema) FieldNamed(id string) (Field, bool) {
	i, ok := s.index[id]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Validate checks a candidate value for a field in two phases: type
// compatibility against the declared FieldType, then the attached constraints.
// It fails fast on the first violation. On success it returns the value in its
// canonical representation (date strings are promoted to date values).
// An unknown field id yields ErrUnknownField, distinct from value errors.
func (s *Schema) Validate(fieldID string, v Value) (Value, error) {
	f, ok := s.FieldNamed(fieldID)
	if !ok {
		return Absent(), newError(ErrUnknownField, fieldID, "a declared field", "no such field")
	}

	req := f.Validation != nil && f.Validation.Required
	if v.IsAbsent() {
		if req {
			return Absent(), newError(ErrRequiredMissing, fieldID, "a value", "null")
		}
		return v, nil
	}

	v, err := s.checkType(f, v)
	if err != nil {
		return Absent(), err
	}
	if f.Validation != nil {
		if err := s.checkConstraints(f, v); err != nil {
			return Absent(), err
		}
	}
	return v, nil
}

func (s *Schema) checkType(f Field, v Value) (Value, error) {
	switch f.Type {
	case TypeText:
		if v.Kind() != KindString {
			return v, newError(ErrTypeMismatch, f.ID, "string", v.Kind().String())
		}
	case TypeNumber:
		// both integral and fractional representations arrive as KindNumber
		if v.Kind() != KindNumber {
			return v, newError(ErrTypeMismatch, f.ID, "number", v.Kind().String())
		}
	case TypeBoolean:
		if v.Kind() != KindBool {
			return v, newError(ErrTypeMismatch, f.ID, "boolean", v.Kind().String())
		}
	case TypeEnum:
		if v.Kind() != KindString {
			return v, newError(ErrTypeMismatch, f.ID, "string (enum)", v.Kind().String())
		}
		for _, opt := range f.Options {
			if v.Str() == opt {
				return v, nil
			}
		}
		return v, newError(ErrInvalidEnum, f.ID, fmt.Sprintf("one of %v", f.Options), strconv.Quote(v.Str()))
	case TypeDate:
		switch v.Kind() {
		case KindDate:
		case KindString:
			t, err := parseDate(v.Str())
			if err != nil {
				return v, newError(ErrTypeMismatch, f.ID, "RFC 3339 date", strconv.Quote(v.Str()))
			}
			return Date(t), nil
		default:
			return v, newError(ErrTypeMismatch, f.ID, "date", v.Kind().String())
		}
	}
	return v, nil
}

func (s *Schema) checkConstraints(f Field, v Value) error {
	val := f.Validation
	if v.Kind() == KindNumber {
		if val.Min != nil && v.Num() < *val.Min {
			return newError(ErrBelowMinimum, f.ID,
				"at least "+formatNum(*val.Min), formatNum(v.Num()))
		}
		if val.Max != nil && v.Num() > *val.Max {
			return newError(ErrAboveMaximum, f.ID,
				"at most "+formatNum(*val.Max), formatNum(v.Num()))
		}
	}
	if v.Kind() == KindString {
		n := len([]rune(v.Str()))
		if val.MinLength != nil && n < *val.MinLength {
			return newError(ErrTooShort, f.ID,
				fmt.Sprintf("at least %d characters", *val.MinLength), fmt.Sprintf("%d", n))
		}
		if val.MaxLength != nil && n > *val.MaxLength {
			return newError(ErrTooLong, f.ID,
				fmt.Sprintf("at most %d characters", *val.MaxLength), fmt.Sprintf("%d", n))
		}
		if re, ok := s.patterns[f.ID]; ok && !re.MatchString(v.Str()) {
			return newError(ErrPatternMismatch, f.ID, "match for "+val.Pattern, strconv.Quote(v.Str()))
		}
	}
	return nil
}

// DefaultValues collects every field's default where one is declared. Fields
// without a default are omitted rather than zero-filled.
func (s *Schema) DefaultValues() map[string]Value {
	out := make(map[string]Value)
	for _, f := range s.Fields {
		if f.Default == nil {
			continue
		}
		v, err := FromJSON(f.Default)
		if err != nil {
			continue
		}
		if cv, verr := s.Validate(f.ID, v); verr == nil {
			out[f.ID] = cv
		}
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func formatNum(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
