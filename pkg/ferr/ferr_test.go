package ferr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgehub/forgehub/pkg/object"
)

func TestDocumentParseErrorUnwraps(t *testing.T) {
	cause := errors.New("bad yaml")
	err := &DocumentParseError{File: "tags.yaml", Line: 3, Cause: cause}
	require.ErrorIs(t, err, cause)
	require.Equal(t, "tags.yaml:3: parse error: bad yaml", err.Error())
}

func TestExpansionErrorMessagesDiffer(t *testing.T) {
	origin := object.Origin{File: "calls.yaml", Line: 5}

	depthErr := &ExpansionError{Origin: origin, TemplateName: "t", DepthExceeded: true, MaxDepth: 64}
	require.NotEmpty(t, depthErr.Error())

	unknownErr := &ExpansionError{Origin: origin, TemplateName: "missing", KnownTemplates: []string{"a", "b"}}
	require.NotEqual(t, depthErr.Error(), unknownErr.Error())
}

func TestRedefineErrorNamesBothOrigins(t *testing.T) {
	k := object.K{Kind: object.KindTag, Name: "dist-f40"}
	err := &RedefineError{
		Key:        k,
		FirstSeen:  object.Origin{File: "a.yaml", Line: 1},
		SecondSeen: object.Origin{File: "b.yaml", Line: 2},
	}
	require.Contains(t, err.Error(), "a.yaml:1")
	require.Contains(t, err.Error(), "b.yaml:2")
}

func TestChangeApplyErrorUnwraps(t *testing.T) {
	cause := errors.New("hub rejected")
	err := &ChangeApplyError{Key: object.K{Kind: object.KindTag, Name: "x"}, Description: "set maven", Cause: cause}
	require.ErrorIs(t, err, cause)
}

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := Wrap(cause, "loading %s", "tags.yaml")
	require.ErrorIs(t, wrapped, cause)
}
