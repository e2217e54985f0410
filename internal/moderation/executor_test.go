package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockGuilds struct {
	mock.Mock
}

func (m *MockGuilds) Member(ctx context.Context, guildID, userID string) (*domain.Member, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockGuilds) CanModerate(ctx context.Context, guildID string, target *domain.Member) (bool, error) {
	args := m.Called(ctx, guildID, target)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuilds) Kick(ctx context.Context, guildID, userID, reason string) error {
	return m.Called(ctx, guildID, userID, reason).Error(0)
}

func (m *MockGuilds) Ban(ctx context.Context, guildID, userID, reason string) error {
	return m.Called(ctx, guildID, userID, reason).Error(0)
}

func TestExecutor_Execute(t *testing.T) {
	target := &domain.Member{ID: targetID, Tag: targetTagName}

	tests := []struct {
		name    string
		kind    domain.ActionKind
		setup   func(g *MockGuilds)
		wantErr error
	}{
		{
			name: "kick succeeds",
			kind: domain.ActionKick,
			setup: func(g *MockGuilds) {
				g.On("Member", mock.Anything, testGuild, targetID).Return(target, nil)
				g.On("CanModerate", mock.Anything, testGuild, target).Return(true, nil)
				g.On("Kick", mock.Anything, testGuild, targetID, "spam").Return(nil)
			},
		},
		{
			name: "ban succeeds",
			kind: domain.ActionBan,
			setup: func(g *MockGuilds) {
				g.On("Member", mock.Anything, testGuild, targetID).Return(target, nil)
				g.On("CanModerate", mock.Anything, testGuild, target).Return(true, nil)
				g.On("Ban", mock.Anything, testGuild, targetID, "spam").Return(nil)
			},
		},
		{
			name: "target not found short-circuits",
			kind: domain.ActionKick,
			setup: func(g *MockGuilds) {
				g.On("Member", mock.Anything, testGuild, targetID).Return(nil, domain.ErrTargetNotFound)
			},
			wantErr: domain.ErrTargetNotFound,
		},
		{
			name: "higher role short-circuits",
			kind: domain.ActionBan,
			setup: func(g *MockGuilds) {
				g.On("Member", mock.Anything, testGuild, targetID).Return(target, nil)
				g.On("CanModerate", mock.Anything, testGuild, target).Return(false, nil)
			},
			wantErr: domain.ErrTargetNotPermitted,
		},
		{
			name: "member lookup transport error",
			kind: domain.ActionKick,
			setup: func(g *MockGuilds) {
				g.On("Member", mock.Anything, testGuild, targetID).Return(nil, errors.New("timeout"))
			},
			wantErr: domain.ErrExecutionFailed,
		},
		{
			name: "platform rejects the kick",
			kind: domain.ActionKick,
			setup: func(g *MockGuilds) {
				g.On("Member", mock.Anything, testGuild, targetID).Return(target, nil)
				g.On("CanModerate", mock.Anything, testGuild, target).Return(true, nil)
				g.On("Kick", mock.Anything, testGuild, targetID, "spam").Return(errors.New("500"))
			},
			wantErr: domain.ErrExecutionFailed,
		},
		{
			name: "platform reports missing permissions",
			kind: domain.ActionBan,
			setup: func(g *MockGuilds) {
				g.On("Member", mock.Anything, testGuild, targetID).Return(target, nil)
				g.On("CanModerate", mock.Anything, testGuild, target).Return(true, nil)
				g.On("Ban", mock.Anything, testGuild, targetID, "spam").Return(domain.ErrTargetNotPermitted)
			},
			wantErr: domain.ErrTargetNotPermitted,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			guilds := new(MockGuilds)
			tc.setup(guilds)
			exec := NewExecutor(guilds, nil, zaptest.NewLogger(t))

			req := domain.NewActionRequest(tc.kind, testGuild, requesterID, targetID, "spam")
			out, err := exec.Execute(context.Background(), req)

			guilds.AssertExpectations(t)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, Outcome{}, out)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Outcome{TargetID: targetID, TargetTag: targetTagName, Reason: "spam"}, out)
		})
	}
}

func TestExecutor_NotFoundSkipsPrivilegedCalls(t *testing.T) {
	guilds := new(MockGuilds)
	guilds.On("Member", mock.Anything, testGuild, targetID).Return(nil, domain.ErrTargetNotFound)
	exec := NewExecutor(guilds, nil, zaptest.NewLogger(t))

	_, err := exec.Execute(context.Background(), domain.NewActionRequest(domain.ActionKick, testGuild, requesterID, targetID, ""))

	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
	guilds.AssertNotCalled(t, "CanModerate", mock.Anything, mock.Anything, mock.Anything)
	guilds.AssertNotCalled(t, "Kick", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
