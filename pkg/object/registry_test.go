package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegistryPreRegistersCoreKinds(t *testing.T) {
	r := NewRegistry()
	for _, k := range []Kind{KindTag, KindTarget, KindExternalRepo, KindUser, KindGroup,
		KindHost, KindChannel, KindPermission, KindBuildType, KindContentGenerator, KindArchiveType} {
		_, ok := r.Lookup(k)
		require.Truef(t, ok, "Lookup(%q) not found, want a default constructor", k)
	}
	_, ok := r.Lookup(KindTemplate)
	require.False(t, ok, "templates are not core kinds")
}

func TestRegisterRejectedAfterMarkStarted(t *testing.T) {
	r := NewRegistry()
	r.MarkStarted()
	err := r.Register(KindTag, func(name string, data map[string]any, pos Origin) (Entity, error) {
		return nil, nil
	})
	require.Error(t, err)
}

func TestRegistryNewBuildsZeroValueEntityForEachCoreKind(t *testing.T) {
	r := NewRegistry()
	for _, k := range r.Kinds() {
		e, err := r.New(K{Kind: k, Name: "probe"})
		require.NoErrorf(t, err, "New(%q) should succeed for every core kind", k)
		require.Equal(t, K{Kind: k, Name: "probe"}, e.Key())
	}
}

func TestRegistryNewRejectsUnregisteredKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.New(K{Kind: KindTemplate, Name: "x"})
	require.Error(t, err)
}

func TestRegisterOverridesBeforeStart(t *testing.T) {
	r := NewRegistry()
	called := false
	err := r.Register(KindTag, func(name string, data map[string]any, pos Origin) (Entity, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)

	ctor, ok := r.Lookup(KindTag)
	require.True(t, ok)
	_, err = ctor("x", nil, Origin{})
	require.NoError(t, err)
	require.True(t, called, "Lookup returned the original constructor, not the overridden one")
}
