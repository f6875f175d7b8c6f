package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderObservedElidesDefaultsAndKeepsNonDefaults(t *testing.T) {
	obs := &TagObserved{
		Inherit:    []PriorityLink{{Name: "dist-f40-base", Priority: 0}},
		Maven:      true,
		Permission: "",
		Locked:     false,
	}
	fields, ok := RenderObserved(obs)
	require.True(t, ok)
	require.Equal(t, []PriorityLink{{Name: "dist-f40-base", Priority: 0}}, fields["inherit"])
	require.Equal(t, true, fields["maven"])
	_, hasLocked := fields["locked"]
	require.False(t, hasLocked, "locked=false matches the default and should be elided")
	_, hasPermission := fields["permission"]
	require.False(t, hasPermission, "permission=\"\" matches the default and should be elided")
}

func TestRenderObservedReportsNotFoundOnNilObserved(t *testing.T) {
	var obs *TagObserved
	fields, ok := RenderObserved(obs)
	require.False(t, ok)
	require.Nil(t, fields)
}

func TestRenderObservedUnknownTypeIsNotFound(t *testing.T) {
	fields, ok := RenderObserved("not an observed struct")
	require.False(t, ok)
	require.Nil(t, fields)
}

func TestRenderObservedBareKindWithNoFieldsStillExists(t *testing.T) {
	fields, ok := RenderObserved(&PermissionObserved{})
	require.True(t, ok)
	require.Empty(t, fields)
}
