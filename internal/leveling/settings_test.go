package leveling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) LevelingSettings(ctx context.Context, guildID string) (*domain.LevelingSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LevelingSettings), args.Error(1)
}

func TestSettingsProvider_ReadThroughWithTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := new(MockSource)
	source.On("LevelingSettings", mock.Anything, "g").Return(&domain.LevelingSettings{Enabled: true, XPPerMessage: 10}, nil)
	p := NewSettingsProvider(source, infra.LevelingConfig{SettingsTTL: 5 * time.Minute}, clock, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	first := p.Get(ctx, "g")
	require.NotNil(t, first)
	assert.Equal(t, 10, first.XPPerMessage)

	p.Get(ctx, "g")
	source.AssertNumberOfCalls(t, "LevelingSettings", 1)

	clock.Advance(5 * time.Minute)
	p.Get(ctx, "g")
	source.AssertNumberOfCalls(t, "LevelingSettings", 2)
}

func TestSettingsProvider_Invalidate(t *testing.T) {
	source := new(MockSource)
	source.On("LevelingSettings", mock.Anything, "g").Return(&domain.LevelingSettings{Enabled: true}, nil)
	p := NewSettingsProvider(source, infra.LevelingConfig{}, clockwork.NewFakeClock(), nil, zaptest.NewLogger(t))
	ctx := context.Background()

	p.Get(ctx, "g")
	p.Invalidate("g")
	p.Get(ctx, "g")
	p.InvalidateAll()
	p.Get(ctx, "g")

	source.AssertNumberOfCalls(t, "LevelingSettings", 3)
}

func TestSettingsProvider_FailuresAreNotCached(t *testing.T) {
	source := new(MockSource)
	source.On("LevelingSettings", mock.Anything, "g").Return(nil, errors.New("circuit breaker is open")).Once()
	source.On("LevelingSettings", mock.Anything, "g").Return(&domain.LevelingSettings{Enabled: true}, nil).Once()
	p := NewSettingsProvider(source, infra.LevelingConfig{}, clockwork.NewFakeClock(), nil, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.Nil(t, p.Get(ctx, "g"))
	s := p.Get(ctx, "g")
	require.NotNil(t, s)
	assert.True(t, s.Enabled)
}
