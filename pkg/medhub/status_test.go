package medhub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medhublabs/medhub/pkg/medhub"
)

func TestValidStatus(t *testing.T) {
	for _, status := range []medhub.ContentStatus{
		medhub.ContentStatusPending,
		medhub.ContentStatusApproved,
		medhub.ContentStatusRejected,
		medhub.ContentStatusDeleted,
	} {
		assert.True(t, medhub.ValidStatus(status), string(status))
	}

	assert.False(t, medhub.ValidStatus("published"))
	assert.False(t, medhub.ValidStatus(""))
}

func TestValidateStatusTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    medhub.ContentStatus
		to      medhub.ContentStatus
		wantErr bool
	}{
		{"pending to approved", medhub.ContentStatusPending, medhub.ContentStatusApproved, false},
		{"pending to rejected", medhub.ContentStatusPending, medhub.ContentStatusRejected, false},
		{"pending to deleted", medhub.ContentStatusPending, medhub.ContentStatusDeleted, false},
		{"approved to rejected", medhub.ContentStatusApproved, medhub.ContentStatusRejected, false},
		{"rejected to approved", medhub.ContentStatusRejected, medhub.ContentStatusApproved, false},
		{"approved to pending", medhub.ContentStatusApproved, medhub.ContentStatusPending, true},
		{"approved to approved", medhub.ContentStatusApproved, medhub.ContentStatusApproved, true},
		{"deleted to approved", medhub.ContentStatusDeleted, medhub.ContentStatusApproved, true},
		{"deleted to pending", medhub.ContentStatusDeleted, medhub.ContentStatusPending, true},
		{"unknown from", "archived", medhub.ContentStatusApproved, true},
		{"unknown to", medhub.ContentStatusPending, "archived", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := medhub.ValidateStatusTransition(tt.from, tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, medhub.ErrInvalidStatusTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
