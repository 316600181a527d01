package docval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_DropsUnsetKeepsNull(t *testing.T) {
	in := map[string]any{
		"a": Unset{},
		"b": nil,
		"c": 1,
	}

	got := Sanitize(in)

	require.IsType(t, map[string]any{}, got)
	m := got.(map[string]any)
	assert.NotContains(t, m, "a")
	assert.Contains(t, m, "b")
	assert.Nil(t, m["b"])
	assert.Equal(t, 1, m["c"])
}

func TestSanitize_NestedStructures(t *testing.T) {
	in := map[string]any{
		"profile": map[string]any{
			"name":  "alice",
			"photo": Unset{},
		},
		"items": []any{1, Unset{}, "x", map[string]any{"gone": Unset{}, "kept": true}},
	}

	got := Sanitize(in).(map[string]any)

	profile := got["profile"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "alice"}, profile)

	items := got["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, 1, items[0])
	assert.Equal(t, "x", items[1])
	assert.Equal(t, map[string]any{"kept": true}, items[2])
}

func TestSanitize_RewritesNonFiniteNumbers(t *testing.T) {
	in := map[string]any{
		"nan":    math.NaN(),
		"posinf": math.Inf(1),
		"neginf": math.Inf(-1),
		"ok":     1.5,
	}

	got := Sanitize(in).(map[string]any)

	assert.Nil(t, got["nan"])
	assert.Nil(t, got["posinf"])
	assert.Nil(t, got["neginf"])
	assert.Equal(t, 1.5, got["ok"])
}

func TestSanitize_Idempotent(t *testing.T) {
	in := map[string]any{
		"a": Unset{},
		"b": nil,
		"n": math.NaN(),
		"l": []any{Unset{}, 2.0, map[string]any{"x": Unset{}}},
	}

	once := Sanitize(in)
	twice := Sanitize(once)

	assert.Equal(t, once, twice)
}

func TestSanitize_TopLevel(t *testing.T) {
	assert.Nil(t, Sanitize(Unset{}))
	assert.Nil(t, Sanitize(nil))
	assert.Equal(t, "s", Sanitize("s"))
	assert.Equal(t, Delete{}, Sanitize(Delete{}))
}

func TestSanitize_DeepCopies(t *testing.T) {
	in := map[string]any{"inner": map[string]any{"v": 1}}

	got := Sanitize(in).(map[string]any)
	got["inner"].(map[string]any)["v"] = 2

	assert.Equal(t, 1, in["inner"].(map[string]any)["v"])
}

func TestSanitize_EmptyCollections(t *testing.T) {
	// An empty collection is a meaningful value ("all tasks deleted"),
	// not an absence.
	got := Sanitize(map[string]any{"tasks": []any{}}).(map[string]any)
	require.Contains(t, got, "tasks")
	assert.Empty(t, got["tasks"])
}

func TestField_Store(t *testing.T) {
	doc := map[string]any{}

	Set("k-123").Store(doc, "licenseKey")
	Clear[int64]().Store(doc, "expiresAt")
	Field[bool]{}.Store(doc, "locked")

	assert.Equal(t, "k-123", doc["licenseKey"])
	assert.Contains(t, doc, "expiresAt")
	assert.Nil(t, doc["expiresAt"])
	assert.NotContains(t, doc, "locked")
}
