package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perizinan/internal/common"
	"perizinan/internal/models"
)

func TestApply_AllowedTransitions(t *testing.T) {
	machine := New()
	ctx := context.Background()

	tests := []struct {
		name    string
		current string
		action  string
		want    string
	}{
		{"submit from draft", models.StatusDraft, models.ActionSubmit, models.StatusSubmitted},
		{"resubmit after revision", models.StatusRequiresRevision, models.ActionSubmit, models.StatusSubmitted},
		{"begin review", models.StatusSubmitted, models.ActionBeginReview, models.StatusInReview},
		{"request revision from submitted", models.StatusSubmitted, models.ActionRequestRevision, models.StatusRequiresRevision},
		{"request revision from in_review", models.StatusInReview, models.ActionRequestRevision, models.StatusRequiresRevision},
		{"approve from submitted", models.StatusSubmitted, models.ActionApprove, models.StatusApproved},
		{"approve from in_review", models.StatusInReview, models.ActionApprove, models.StatusApproved},
		{"reject from submitted", models.StatusSubmitted, models.ActionReject, models.StatusRejected},
		{"reject from in_review", models.StatusInReview, models.ActionReject, models.StatusRejected},
		{"revoke approved", models.StatusApproved, models.ActionRevoke, models.StatusRevoked},
		{"expire approved", models.StatusApproved, models.ActionExpire, models.StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := machine.Apply(ctx, tt.current, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_RejectsEverythingElse(t *testing.T) {
	machine := New()
	ctx := context.Background()

	allowed := make(map[[2]string]bool)
	for _, tr := range Transitions {
		allowed[[2]string{tr.Src, tr.Action}] = true
	}

	statuses := []string{
		models.StatusDraft, models.StatusSubmitted, models.StatusInReview,
		models.StatusRequiresRevision, models.StatusApproved, models.StatusRejected,
		models.StatusExpired, models.StatusRevoked,
	}
	actions := []string{
		models.ActionSubmit, models.ActionBeginReview, models.ActionRequestRevision,
		models.ActionApprove, models.ActionReject, models.ActionRevoke, models.ActionExpire,
	}

	for _, status := range statuses {
		for _, action := range actions {
			if allowed[[2]string{status, action}] {
				continue
			}
			_, err := machine.Apply(ctx, status, action)
			require.Error(t, err, "expected %s from %s to be rejected", action, status)

			var invalid *common.InvalidTransitionError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, status, invalid.Status)
			assert.Equal(t, action, invalid.Action)
		}
	}
}

func TestApply_ApproveFromDraftNamesStateAndAction(t *testing.T) {
	machine := New()

	_, err := machine.Apply(context.Background(), models.StatusDraft, models.ActionApprove)
	require.Error(t, err)
	assert.Contains(t, err.Error(), models.StatusDraft)
	assert.Contains(t, err.Error(), models.ActionApprove)
}

func TestTerminalStatusesHaveNoExitExceptApproved(t *testing.T) {
	for _, tr := range Transitions {
		switch tr.Src {
		case models.StatusRejected, models.StatusExpired, models.StatusRevoked:
			t.Errorf("transition %q leaves terminal status %q", tr.Action, tr.Src)
		}
	}
}

func TestCanEdit(t *testing.T) {
	assert.True(t, CanEdit(models.StatusDraft))
	assert.True(t, CanEdit(models.StatusSubmitted))
	assert.True(t, CanEdit(models.StatusRequiresRevision))
	assert.False(t, CanEdit(models.StatusInReview))
	assert.False(t, CanEdit(models.StatusApproved))
	assert.False(t, CanEdit(models.StatusRejected))
	assert.False(t, CanEdit(models.StatusExpired))
	assert.False(t, CanEdit(models.StatusRevoked))
}
