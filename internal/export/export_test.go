package export

import (
	"encoding/json"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/require"

	"github.com/patchdoc/patchdoc/internal/document"
	"github.com/patchdoc/patchdoc/internal/schema"
)

func f64(v float64) *float64 { return &v }

func budgetSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("Meal Budget", 2, []schema.Field{
		{ID: "targetCalories", Label: "Target Calories", Type: schema.TypeNumber,
			Validation: &schema.Validation{Min: f64(500), Max: f64(5000), Required: true}},
		{ID: "plan", Label: "Plan", Type: schema.TypeEnum, Options: []string{"bulk", "cut"}},
	})
	require.NoError(t, err)
	return s
}

func TestToolDescriptor_LockStepWithEngine(t *testing.T) {
	def := ToolDescriptor(budgetSchema(t))

	require.Equal(t, "meal-budget_apply_patch", def.Name)
	require.Contains(t, def.Description, "targetCalories")

	params, ok := def.Parameters.(jsonschema.Definition)
	require.True(t, ok)
	require.Equal(t, []string{"patch"}, params.Required)

	patch := params.Properties["patch"]
	op := patch.Items.Properties["op"]
	// only the verbs the engine accepts may be advertised
	require.ElementsMatch(t, []string{document.OpReplace, document.OpAdd}, op.Enum)
	require.Equal(t, []string{"op", "path", "value"}, patch.Items.Required)

	// descriptor must serialize cleanly for tool registration
	raw, err := json.Marshal(def)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"replace"`)
}

func TestResourceID(t *testing.T) {
	require.Equal(t, "document://meal-budget", ResourceID(budgetSchema(t)))
}

func TestSlug(t *testing.T) {
	require.Equal(t, "budget", Slug("Budget"))
	require.Equal(t, "meal-budget", Slug("Meal  Budget!"))
	require.Equal(t, "a-b-2", Slug("  A/B 2 "))
}

func TestPromptContext(t *testing.T) {
	s := budgetSchema(t)
	d := document.New(s)
	res := d.ApplyPatch([]document.Op{{Op: document.OpReplace, Path: "/targetCalories", Value: float64(1800)}}, "user")
	require.True(t, res.Success)

	ctx := PromptContext(d)
	require.Contains(t, ctx, `Document "Meal Budget" (version 2)`)
	require.Contains(t, ctx, "Target Calories (path /targetCalories, type number, min 500, max 5000, required): 1800")
	require.Contains(t, ctx, "options: bulk, cut")
	require.Contains(t, ctx, "Plan (path /plan, type enum, options: bulk, cut): not set")
}
