package guildsync

import (
	"context"
	"errors"
	"testing"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockDirector struct {
	mock.Mock
}

func (m *MockDirector) MemberJoin(ctx context.Context, guildID, userID string) (*domain.JoinDirective, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JoinDirective), args.Error(1)
}

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, req domain.ActionRequest) (moderation.Outcome, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(moderation.Outcome), args.Error(1)
}

type MockRoles struct {
	mock.Mock
}

func (m *MockRoles) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return m.Called(ctx, guildID, userID, roleID).Error(0)
}

func TestJoinGate_KickAndBanGoThroughExecutor(t *testing.T) {
	tests := []struct {
		action domain.JoinAction
		kind   domain.ActionKind
	}{
		{domain.JoinKick, domain.ActionKick},
		{domain.JoinBan, domain.ActionBan},
	}
	for _, tc := range tests {
		t.Run(string(tc.action), func(t *testing.T) {
			api := new(MockDirector)
			api.On("MemberJoin", mock.Anything, "g", "u").Return(&domain.JoinDirective{Action: tc.action, Reason: "alt account"}, nil)
			exec := new(MockExecutor)
			exec.On("Execute", mock.Anything, domain.ActionRequest{
				Kind: tc.kind, GuildID: "g", TargetID: "u", Reason: "alt account",
			}).Return(moderation.Outcome{TargetID: "u"}, nil)

			gate := NewJoinGate(api, exec, new(MockRoles), zaptest.NewLogger(t))
			got, err := gate.HandleJoin(context.Background(), "g", "u")

			require.NoError(t, err)
			assert.Equal(t, tc.action, got)
			exec.AssertExpectations(t)
		})
	}
}

func TestJoinGate_HierarchyFailureSurfaces(t *testing.T) {
	api := new(MockDirector)
	api.On("MemberJoin", mock.Anything, "g", "u").Return(&domain.JoinDirective{Action: domain.JoinBan}, nil)
	exec := new(MockExecutor)
	exec.On("Execute", mock.Anything, mock.Anything).Return(moderation.Outcome{}, domain.ErrTargetNotPermitted)

	got, err := NewJoinGate(api, exec, new(MockRoles), zaptest.NewLogger(t)).HandleJoin(context.Background(), "g", "u")

	assert.ErrorIs(t, err, domain.ErrTargetNotPermitted)
	assert.Equal(t, domain.JoinNone, got)
}

func TestJoinGate_GiveRoleContinuesPastFailures(t *testing.T) {
	api := new(MockDirector)
	api.On("MemberJoin", mock.Anything, "g", "u").
		Return(&domain.JoinDirective{Action: domain.JoinGiveRole, RolesToAdd: []string{"r1", "r2"}}, nil)
	roles := new(MockRoles)
	roles.On("AddRole", mock.Anything, "g", "u", "r1").Return(errors.New("unknown role"))
	roles.On("AddRole", mock.Anything, "g", "u", "r2").Return(nil)

	got, err := NewJoinGate(api, new(MockExecutor), roles, zaptest.NewLogger(t)).HandleJoin(context.Background(), "g", "u")

	require.NoError(t, err)
	assert.Equal(t, domain.JoinGiveRole, got)
	roles.AssertExpectations(t)
}

func TestJoinGate_NoneAndBackendFailure(t *testing.T) {
	api := new(MockDirector)
	api.On("MemberJoin", mock.Anything, "g", "quiet").Return(&domain.JoinDirective{Action: domain.JoinNone}, nil)
	api.On("MemberJoin", mock.Anything, "g", "down").Return(nil, errors.New("circuit breaker is open"))
	exec := new(MockExecutor)
	gate := NewJoinGate(api, exec, new(MockRoles), zaptest.NewLogger(t))

	got, err := gate.HandleJoin(context.Background(), "g", "quiet")
	require.NoError(t, err)
	assert.Equal(t, domain.JoinNone, got)

	got, err = gate.HandleJoin(context.Background(), "g", "down")
	assert.Error(t, err)
	assert.Equal(t, domain.JoinNone, got)
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}
