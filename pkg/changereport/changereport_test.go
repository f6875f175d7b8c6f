package changereport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgehub/forgehub/pkg/object"
	"github.com/forgehub/forgehub/pkg/remote"
)

func newTag(name string, maven bool) *object.Tag {
	return &object.Tag{Base: object.Base{K: object.K{Kind: object.KindTag, Name: name}}, Maven: maven}
}

func TestReportLifecycleEmptyDiffGoesStraightToApplied(t *testing.T) {
	tag := newTag("dist-f40", false)
	sess := remote.NewFakeSession(func(remote.CallDescriptor) (any, error) {
		return &object.TagObserved{Maven: false}, nil
	})

	r := New(tag)
	b, err := sess.OpenBatch(nil) //nolint:staticcheck
	require.NoError(t, err)
	r.EnqueueRead(b)
	require.Equal(t, Reading, r.State)
	require.NoError(t, sess.CloseBatch(nil, b)) //nolint:staticcheck

	r.Compare()
	require.Equal(t, Applied, r.State, "an empty diff should go straight to APPLIED")
	require.Empty(t, r.Changes)
}

func TestReportLifecycleAppliesChanges(t *testing.T) {
	tag := newTag("dist-f40", true)
	sess := remote.NewFakeSession(func(d remote.CallDescriptor) (any, error) {
		if d.Method == "getTag" {
			return nil, nil
		}
		return "ok", nil
	})

	r := New(tag)
	b, err := sess.OpenBatch(nil) //nolint:staticcheck
	require.NoError(t, err)
	r.EnqueueRead(b)
	require.NoError(t, sess.CloseBatch(nil, b)) //nolint:staticcheck
	r.Compare()
	require.Equal(t, Compared, r.State)
	require.True(t, r.HasChanges(), "a fresh tag needs create + set-field changes")

	b2, err := sess.OpenBatch(nil) //nolint:staticcheck
	require.NoError(t, err)
	r.EnqueueWrites(b2)
	require.Equal(t, Applying, r.State)
	require.NoError(t, sess.CloseBatch(nil, b2)) //nolint:staticcheck
	r.ResolveWrites()
	require.Equal(t, Applied, r.State)
}

func TestReportLifecycleReadFailureSetsFailed(t *testing.T) {
	tag := newTag("dist-f40", false)
	sess := remote.NewFakeSession(func(remote.CallDescriptor) (any, error) {
		return nil, errors.New("hub unreachable")
	})

	r := New(tag)
	b, err := sess.OpenBatch(nil) //nolint:staticcheck
	require.NoError(t, err)
	r.EnqueueRead(b)
	require.NoError(t, sess.CloseBatch(nil, b)) //nolint:staticcheck
	r.Compare()

	require.Equal(t, Failed, r.State)
	require.NotEmpty(t, r.FailReason)
}

func TestReportLifecycleApplyFailureSetsFailed(t *testing.T) {
	tag := newTag("dist-f40", true)
	sess := remote.NewFakeSession(func(d remote.CallDescriptor) (any, error) {
		if d.Method == "getTag" {
			return nil, nil
		}
		return nil, errors.New("hub rejected write")
	})

	r := New(tag)
	b, err := sess.OpenBatch(nil) //nolint:staticcheck
	require.NoError(t, err)
	r.EnqueueRead(b)
	require.NoError(t, sess.CloseBatch(nil, b)) //nolint:staticcheck
	r.Compare()

	b2, err := sess.OpenBatch(nil) //nolint:staticcheck
	require.NoError(t, err)
	r.EnqueueWrites(b2)
	require.NoError(t, sess.CloseBatch(nil, b2)) //nolint:staticcheck
	r.ResolveWrites()

	require.Equal(t, Failed, r.State)
	require.Error(t, r.Changes[0].Err, "the failing change should carry the underlying error")
}

func TestReportMarkUpstreamFailedShortCircuits(t *testing.T) {
	r := New(newTag("dist-f40", false))
	r.MarkUpstreamFailed()
	require.Equal(t, Failed, r.State)
	require.Equal(t, "upstream failure", r.FailReason)
}

func TestReportMarkDryRunSkipsApply(t *testing.T) {
	tag := newTag("dist-f40", true)
	sess := remote.NewFakeSession(func(remote.CallDescriptor) (any, error) { return nil, nil })

	r := New(tag)
	b, err := sess.OpenBatch(nil) //nolint:staticcheck
	require.NoError(t, err)
	r.EnqueueRead(b)
	require.NoError(t, sess.CloseBatch(nil, b)) //nolint:staticcheck
	r.Compare()

	r.MarkDryRun()
	require.Equal(t, Applied, r.State)
}

func TestReportTransitionsIgnoredOutOfOrder(t *testing.T) {
	r := New(newTag("dist-f40", false))
	r.Compare() // no-op: still INIT
	require.Equal(t, Init, r.State, "Compare before EnqueueRead should be a no-op")
}
