package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
)

// PermissionCheckRequest: тело POST /api/guild/{id}/check-permissions.
type PermissionCheckRequest struct {
	ActorID      string   `json:"actorId"`
	ActorRoleIDs []string `json:"actorRoleIds"`
	ActionKind   string   `json:"actionKind"`
}

type PermissionCheckResponse struct {
	Permission            string `json:"permission"`
	NotificationChannelID string `json:"notificationChannelId,omitempty"`
	PresentationStyle     string `json:"presentationStyle,omitempty"`
}

// CheckPermissions спрашивает у бэкенда tier актора для действия.
func (c *Client) CheckPermissions(ctx context.Context, guildID string, req PermissionCheckRequest) (*PermissionCheckResponse, error) {
	if req.ActorRoleIDs == nil {
		req.ActorRoleIDs = []string{} // бэкенд ждёт массив, а не null
	}
	var resp PermissionCheckResponse
	path := "/api/guild/" + url.PathEscape(guildID) + "/check-permissions"
	if err := c.do(ctx, "check-permissions", http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type serverSyncRequest struct {
	ServerID string `json:"serverId"`
	OwnerID  string `json:"ownerId"`
}

// SyncServer регистрирует сервер в панели. Идемпотентна.
func (c *Client) SyncServer(ctx context.Context, serverID, ownerID string) error {
	return c.do(ctx, "servers-sync", http.MethodPost, "/api/servers/sync",
		serverSyncRequest{ServerID: serverID, OwnerID: ownerID}, nil)
}

// UnsyncServer удаляет сервер из панели после выхода бота. Идемпотентна.
func (c *Client) UnsyncServer(ctx context.Context, serverID string) error {
	return c.do(ctx, "servers-unsync", http.MethodDelete, "/api/servers/"+url.PathEscape(serverID)+"/sync", nil, nil)
}

type memberJoinRequest struct {
	GuildID string `json:"guildId"`
	UserID  string `json:"userId"`
}

// MemberJoin спрашивает, что делать с новым участником.
func (c *Client) MemberJoin(ctx context.Context, guildID, userID string) (*domain.JoinDirective, error) {
	var resp domain.JoinDirective
	if err := c.do(ctx, "member-join", http.MethodPost, "/api/bot/member-join",
		memberJoinRequest{GuildID: guildID, UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type serverResponse struct {
	Modules struct {
		Leveling *domain.LevelingSettings `json:"leveling"`
	} `json:"modules"`
}

// LevelingSettings читает настройки модуля уровней сервера. nil: модуль не настроен.
func (c *Client) LevelingSettings(ctx context.Context, serverID string) (*domain.LevelingSettings, error) {
	var resp serverResponse
	if err := c.do(ctx, "servers-get", http.MethodGet, "/api/servers/"+url.PathEscape(serverID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Modules.Leveling, nil
}

type addXPRequest struct {
	Amount int `json:"amount"`
}

// AddXP начисляет опыт. Не идемпотентна: не повторять.
func (c *Client) AddXP(ctx context.Context, guildID, userID string, amount int) (*domain.XPResult, error) {
	var resp domain.XPResult
	path := "/api/servers/" + url.PathEscape(guildID) + "/users/" + url.PathEscape(userID) + "/add-xp"
	if err := c.do(ctx, "add-xp", http.MethodPost, path, addXPRequest{Amount: amount}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserProfile возвращает профиль с сайта. 404 проверяется через IsNotFound.
func (c *Client) UserProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var resp domain.Profile
	if err := c.do(ctx, "user-profile", http.MethodGet, "/api/user/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
