package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/infra"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(infra.BackendConfig{
		BaseURL:       srv.URL,
		ClientSecret:  "s3cret",
		Timeout:       2 * time.Second,
		CBTimeout:     time.Minute,
		CBMaxFailures: 1,
	}, nil, zaptest.NewLogger(t))
}

func TestClient_CheckPermissions(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/guild/111/check-permissions", r.URL.Path)
		assert.Equal(t, "Bot s3cret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"permission":"conditional","notificationChannelId":"555","presentationStyle":"reaction"}`))
	}))

	resp, err := client.CheckPermissions(context.Background(), "111", PermissionCheckRequest{
		ActorID:    "42",
		ActionKind: "kick",
	})
	require.NoError(t, err)
	assert.Equal(t, "conditional", resp.Permission)
	assert.Equal(t, "555", resp.NotificationChannelID)
	assert.Equal(t, "reaction", resp.PresentationStyle)

	assert.Equal(t, "42", got["actorId"])
	assert.Equal(t, "kick", got["actionKind"])
	assert.Equal(t, []any{}, got["actorRoleIds"], "nil roles must be sent as an empty array")
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		header    map[string]string
		check     func(t *testing.T, err error)
		retryable bool
	}{
		{
			name:   "throttled with retry-after",
			status: http.StatusTooManyRequests,
			header: map[string]string{"Retry-After": "2"},
			check: func(t *testing.T, err error) {
				var tErr *ThrottleError
				require.True(t, errors.As(err, &tErr))
				assert.Equal(t, 2*time.Second, tErr.RetryAfter)
			},
			retryable: true,
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				assert.True(t, IsNotFound(err))
			},
			retryable: false,
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var sErr *StatusError
				require.True(t, errors.As(err, &sErr))
				assert.Equal(t, http.StatusBadGateway, sErr.Code)
			},
			retryable: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tc.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tc.status)
			}))

			_, err := client.UserProfile(context.Background(), "42")
			require.Error(t, err)
			tc.check(t, err)
			assert.Equal(t, tc.retryable, Retryable(err))
		})
	}
}

func TestClient_CircuitBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	ctx := context.Background()

	// CBMaxFailures=1: размыкается после второй подряд ошибки
	for i := 0; i < 2; i++ {
		_, err := client.CheckPermissions(ctx, "1", PermissionCheckRequest{ActorID: "2", ActionKind: "ban"})
		require.Error(t, err)
	}

	_, err := client.CheckPermissions(ctx, "1", PermissionCheckRequest{ActorID: "2", ActionKind: "ban"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "open breaker must not reach the backend")
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))

	for i := 0; i < 5; i++ {
		_, err := client.UserProfile(context.Background(), "42")
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}

func TestClient_AddXPAndSettings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/servers/9/users/7/add-xp", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 15, body["amount"])
		_, _ = w.Write([]byte(`{"leveledUp":true,"newLevel":3,"newXp":420,"oldLevel":2}`))
	})
	mux.HandleFunc("/api/servers/9", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"modules":{"leveling":{"enabled":true,"xpPerMessage":15,"xpCooldownSeconds":60,"levelUpChannel":"current","roleRewards":[{"level":2,"roleId":"r2"}]}}}`))
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	res, err := client.AddXP(ctx, "9", "7", 15)
	require.NoError(t, err)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 3, res.NewLevel)

	settings, err := client.LevelingSettings(ctx, "9")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.True(t, settings.Enabled)
	assert.Equal(t, 60, settings.XPCooldownSeconds)
	require.Len(t, settings.RoleRewards, 1)
	assert.Equal(t, "r2", settings.RoleRewards[0].RoleID)
}
