package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/TheRandomCody/Ulti-Bot/internal/backend"
	"github.com/TheRandomCody/Ulti-Bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) CheckPermissions(ctx context.Context, guildID string, req backend.PermissionCheckRequest) (*backend.PermissionCheckResponse, error) {
	args := m.Called(ctx, guildID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.PermissionCheckResponse), args.Error(1)
}

func TestRemoteResolver_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		resp     *backend.PermissionCheckResponse
		actor    domain.Actor
		expected domain.Decision
	}{
		{
			name:     "full",
			resp:     &backend.PermissionCheckResponse{Permission: "full"},
			expected: domain.Decision{Tier: domain.TierFull},
		},
		{
			name:     "denied via legacy none",
			resp:     &backend.PermissionCheckResponse{Permission: "none"},
			expected: domain.Decision{Tier: domain.TierDenied},
		},
		{
			name: "conditional carries approval config",
			resp: &backend.PermissionCheckResponse{Permission: "conditional", NotificationChannelID: "c1", PresentationStyle: "reaction"},
			expected: domain.Decision{Tier: domain.TierConditional, Config: domain.ApprovalConfig{
				NotificationChannelID: "c1",
				Style:                 domain.StyleReaction,
			}},
		},
		{
			name: "legacy auth defaults to buttons",
			resp: &backend.PermissionCheckResponse{Permission: "auth", NotificationChannelID: "c1"},
			expected: domain.Decision{Tier: domain.TierConditional, Config: domain.ApprovalConfig{
				NotificationChannelID: "c1",
				Style:                 domain.StyleButtons,
			}},
		},
		{
			name:     "use_default with native permission",
			resp:     &backend.PermissionCheckResponse{Permission: "use_default"},
			actor:    domain.Actor{ID: "a", Permissions: domain.PermissionKickMembers},
			expected: domain.Decision{Tier: domain.TierFull},
		},
		{
			name:     "use_default with administrator",
			resp:     &backend.PermissionCheckResponse{Permission: "use_default"},
			actor:    domain.Actor{ID: "a", Permissions: domain.PermissionAdministrator},
			expected: domain.Decision{Tier: domain.TierFull},
		},
		{
			name:     "use_default without native permission",
			resp:     &backend.PermissionCheckResponse{Permission: "use_default"},
			actor:    domain.Actor{ID: "a", Permissions: domain.PermissionBanMembers},
			expected: domain.Decision{Tier: domain.TierDenied},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checker := new(MockChecker)
			checker.On("CheckPermissions", mock.Anything, "g1", mock.Anything).Return(tc.resp, nil)
			r := NewRemoteResolver(checker, nil, zap.NewNop())

			actor := tc.actor
			if actor.ID == "" {
				actor.ID = "a"
			}
			decision, err := r.Resolve(context.Background(), "g1", actor, domain.ActionKick)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, decision)
		})
	}
}

func TestRemoteResolver_BackendFailureIsUndetermined(t *testing.T) {
	checker := new(MockChecker)
	checker.On("CheckPermissions", mock.Anything, "g1", mock.Anything).Return(nil, errors.New("connection refused"))
	r := NewRemoteResolver(checker, nil, zap.NewNop())

	decision, err := r.Resolve(context.Background(), "g1", domain.Actor{ID: "a"}, domain.ActionBan)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPolicyUnavailable)
	assert.Equal(t, domain.TierUndetermined, decision.Tier)
}

func TestRemoteResolver_UnknownPermissionIsUndetermined(t *testing.T) {
	checker := new(MockChecker)
	checker.On("CheckPermissions", mock.Anything, "g1", mock.Anything).
		Return(&backend.PermissionCheckResponse{Permission: "superuser"}, nil)
	r := NewRemoteResolver(checker, nil, zap.NewNop())

	decision, err := r.Resolve(context.Background(), "g1", domain.Actor{ID: "a"}, domain.ActionBan)
	assert.ErrorIs(t, err, domain.ErrPolicyUnavailable)
	assert.Equal(t, domain.TierUndetermined, decision.Tier)
}

// Два вызова для одного актора с разными ролями обязаны дойти до бэкенда оба раза
// и могут вернуть разные tier.
func TestRemoteResolver_NoMemoizationAcrossCalls(t *testing.T) {
	checker := new(MockChecker)
	checker.On("CheckPermissions", mock.Anything, "g1", backend.PermissionCheckRequest{
		ActorID: "a", ActorRoleIDs: []string{"mod"}, ActionKind: "kick",
	}).Return(&backend.PermissionCheckResponse{Permission: "conditional", NotificationChannelID: "c"}, nil).Once()
	checker.On("CheckPermissions", mock.Anything, "g1", backend.PermissionCheckRequest{
		ActorID: "a", ActorRoleIDs: []string{"mod", "senior"}, ActionKind: "kick",
	}).Return(&backend.PermissionCheckResponse{Permission: "full"}, nil).Once()
	r := NewRemoteResolver(checker, nil, zap.NewNop())
	ctx := context.Background()

	first, err := r.Resolve(ctx, "g1", domain.Actor{ID: "a", RoleIDs: []string{"mod"}}, domain.ActionKick)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, "g1", domain.Actor{ID: "a", RoleIDs: []string{"mod", "senior"}}, domain.ActionKick)
	require.NoError(t, err)

	assert.Equal(t, domain.TierConditional, first.Tier)
	assert.Equal(t, domain.TierFull, second.Tier)
	checker.AssertNumberOfCalls(t, "CheckPermissions", 2)
}
