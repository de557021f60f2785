package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		want   Status
		ok     bool
	}{
		{StatusPendingApproval, ActionApprove, StatusApproved, true},
		{StatusPendingApproval, ActionAutoApprove, StatusAutoApproved, true},
		{StatusPendingApproval, ActionReject, StatusRejected, true},
		{StatusApproved, ActionActivate, StatusActive, true},
		{StatusAutoApproved, ActionActivate, StatusActive, true},
		{StatusActive, ActionSuspend, StatusSuspended, true},
		{StatusActive, ActionTerminate, StatusTerminated, true},
		{StatusSuspended, ActionReactivate, StatusActive, true},
		{StatusSuspended, ActionTerminate, StatusTerminated, true},

		{StatusPendingApproval, ActionActivate, "", false},
		{StatusPendingApproval, ActionSuspend, "", false},
		{StatusApproved, ActionApprove, "", false},
		{StatusApproved, ActionSuspend, "", false},
		{StatusActive, ActionApprove, "", false},
		{StatusActive, ActionReactivate, "", false},
		{StatusSuspended, ActionSuspend, "", false},
	}

	for _, tc := range cases {
		got, ok := NextStatus(tc.from, tc.action)
		assert.Equal(t, tc.ok, ok, "%s + %s", tc.from, tc.action)
		if tc.ok {
			assert.Equal(t, tc.want, got, "%s + %s", tc.from, tc.action)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	actions := []Action{
		ActionApprove, ActionAutoApprove, ActionReject,
		ActionActivate, ActionSuspend, ActionReactivate, ActionTerminate,
	}
	for _, terminal := range []Status{StatusRejected, StatusTerminated} {
		for _, action := range actions {
			_, ok := NextStatus(terminal, action)
			assert.False(t, ok, "%s + %s", terminal, action)
		}
	}
}

func TestReasonRequired(t *testing.T) {
	assert.True(t, ReasonRequired(ActionReject))
	assert.True(t, ReasonRequired(ActionSuspend))
	assert.True(t, ReasonRequired(ActionTerminate))
	assert.False(t, ReasonRequired(ActionApprove))
	assert.False(t, ReasonRequired(ActionActivate))
	assert.False(t, ReasonRequired(ActionReactivate))
}
