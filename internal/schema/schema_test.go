package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func ip(v int) *int          { return &v }

func budgetSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New("Budget", 1, []Field{
		{ID: "targetCalories", Label: "Target Calories", Type: TypeNumber,
			Validation: &Validation{Min: f64(500), Max: f64(5000)}},
		{ID: "note", Label: "Note", Type: TypeText,
			Validation: &Validation{MinLength: ip(2), MaxLength: ip(10)}},
		{ID: "plan", Label: "Plan", Type: TypeEnum, Options: []string{"bulk", "cut", "maintain"}, Default: "maintain"},
		{ID: "active", Label: "Active", Type: TypeBoolean, Default: true},
		{ID: "start", Label: "Start Date", Type: TypeDate},
	})
	require.NoError(t, err)
	return s
}

func TestFieldNamed(t *testing.T) {
	s := budgetSchema(t)

	f, ok := s.FieldNamed("plan")
	require.True(t, ok)
	require.Equal(t, TypeEnum, f.Type)

	_, ok = s.FieldNamed("nope")
	require.False(t, ok)
}

func TestValidate_UnknownFieldIsDistinct(t *testing.T) {
	s := budgetSchema(t)

	_, err := s.Validate("missing", Number(1))
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrUnknownField, se.Kind)
	require.Equal(t, "missing", se.FieldID)
}

func TestValidate_TypeMismatch(t *testing.T) {
	s := budgetSchema(t)

	_, err := s.Validate("targetCalories", String("many"))
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrTypeMismatch, se.Kind)
	require.Equal(t, "targetCalories", se.FieldID)

	_, err = s.Validate("note", Number(5))
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrTypeMismatch, se.Kind)

	_, err = s.Validate("active", String("yes"))
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrTypeMismatch, se.Kind)
}

func TestValidate_NumericBoundsInclusive(t *testing.T) {
	s := budgetSchema(t)

	for _, ok := range []float64{500, 1800, 5000} {
		_, err := s.Validate("targetCalories", Number(ok))
		require.NoError(t, err, "value %v should be inside bounds", ok)
	}

	_, err := s.Validate("targetCalories", Number(499.9))
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrBelowMinimum, se.Kind)
	require.Contains(t, se.Expected, "500")

	_, err = s.Validate("targetCalories", Number(6000))
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrAboveMaximum, se.Kind)
	require.Contains(t, se.Actual, "6000")
}

func TestValidate_StringLengths(t *testing.T) {
	s := budgetSchema(t)

	_, err := s.Validate("note", String("x"))
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrTooShort, se.Kind)

	_, err = s.Validate("note", String("way too long for this"))
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrTooLong, se.Kind)

	_, err = s.Validate("note", String("fine"))
	require.NoError(t, err)
}

func TestValidate_Enum(t *testing.T) {
	s := budgetSchema(t)

	_, err := s.Validate("plan", String("bulk"))
	require.NoError(t, err)

	_, err = s.Validate("plan", String("yolo"))
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrInvalidEnum, se.Kind)
	require.Contains(t, se.Expected, "bulk")
}

func TestValidate_DatePromotion(t *testing.T) {
	s := budgetSchema(t)

	v, err := s.Validate("start", String("2026-08-29T10:00:00Z"))
	require.NoError(t, err)
	require.Equal(t, KindDate, v.Kind())

	v, err = s.Validate("start", String("2026-08-29"))
	require.NoError(t, err)
	require.Equal(t, KindDate, v.Kind())

	_, err = s.Validate("start", String("next tuesday"))
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, ErrTypeMismatch, se.Kind)
}

func TestValidate_Required(t *testing.T) {
	s, err := New("Profile", 1, []Field{
		{ID: "name", Label: "Name", Type: TypeText, Validation: &Validation{Required: true}},
	})
	require.NoError(t, err)

	_, verr := s.Validate("name", Absent())
	var se *Error
	require.ErrorAs(t, verr, &se)
	require.Equal(t, ErrRequiredMissing, se.Kind)

	// absent is fine when not required
	s2 := budgetSchema(t)
	_, verr = s2.Validate("note", Absent())
	require.NoError(t, verr)
}

func TestValidate_Pattern(t *testing.T) {
	s, err := New("Contact", 1, []Field{
		{ID: "zip", Label: "ZIP", Type: TypeText, Validation: &Validation{Pattern: `^\d{5}$`}},
	})
	require.NoError(t, err)

	_, verr := s.Validate("zip", String("12345"))
	require.NoError(t, verr)

	_, verr = s.Validate("zip", String("abcde"))
	var se *Error
	require.ErrorAs(t, verr, &se)
	require.Equal(t, ErrPatternMismatch, se.Kind)
}

func TestDefaultValues_OmitsFieldsWithoutDefault(t *testing.T) {
	s := budgetSchema(t)

	defs := s.DefaultValues()
	require.Len(t, defs, 2)
	require.Equal(t, "maintain", defs["plan"].Str())
	require.True(t, defs["active"].Boolean())
	_, present := defs["targetCalories"]
	require.False(t, present)
}

func TestNew_RejectsBrokenSchemas(t *testing.T) {
	_, err := New("Dup", 1, []Field{
		{ID: "a", Label: "A", Type: TypeText},
		{ID: "a", Label: "A again", Type: TypeText},
	})
	require.ErrorContains(t, err, "duplicate id")

	_, err = New("EmptyEnum", 1, []Field{
		{ID: "e", Label: "E", Type: TypeEnum},
	})
	require.ErrorContains(t, err, "at least one option")

	_, err = New("BadDefault", 1, []Field{
		{ID: "e", Label: "E", Type: TypeEnum, Options: []string{"x"}, Default: "y"},
	})
	require.ErrorContains(t, err, "default rejected")

	_, err = New("BadPattern", 1, []Field{
		{ID: "p", Label: "P", Type: TypeText, Validation: &Validation{Pattern: "("}},
	})
	require.ErrorContains(t, err, "invalid pattern")

	_, err = New("", 1, nil)
	require.ErrorContains(t, err, "name is required")
}

func TestValueJSONRoundTrip(t *testing.T) {
	v, err := FromJSON(float64(42))
	require.NoError(t, err)
	require.Equal(t, KindNumber, v.Kind())
	require.Equal(t, float64(42), v.ToJSON())

	v, err = FromJSON(map[string]interface{}{"k": "v"})
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())

	v, err = FromJSON(nil)
	require.NoError(t, err)
	require.True(t, v.IsAbsent())

	_, err = FromJSON([]interface{}{1, 2})
	require.Error(t, err)
}
