package domain

// LevelingSettings: настройки модуля уровней сервера (раздел modules.leveling в API).
type LevelingSettings struct {
	Enabled           bool          `json:"enabled"`
	XPPerMessage      int           `json:"xpPerMessage"`
	XPCooldownSeconds int           `json:"xpCooldownSeconds"`
	IgnoredRoles      []string      `json:"ignoredRoles"`
	LevelUpChannel    string        `json:"levelUpChannel"` // "current" или ID канала
	LevelUpMessage    *LevelMessage `json:"levelUpMessage,omitempty"`
	RoleRewards       []RoleReward  `json:"roleRewards"`
}

type LevelMessage struct {
	Content string `json:"content"`
}

type RoleReward struct {
	Level  int    `json:"level"`
	RoleID string `json:"roleId"`
}

// LevelUpChannelCurrent: писать в тот же канал, где было сообщение.
const LevelUpChannelCurrent = "current"

// XPResult: ответ бэкенда на начисление опыта.
type XPResult struct {
	LeveledUp bool `json:"leveledUp"`
	NewLevel  int  `json:"newLevel"`
	NewXP     int  `json:"newXp"`
	OldLevel  int  `json:"oldLevel"`
}

// Profile: профиль пользователя на сайте.
type Profile struct {
	Username string `json:"username"`
	Level    int    `json:"level"`
	Joined   string `json:"joined"`
	Bio      string `json:"bio"`
}

// JoinAction: что сделать с новым участником.
type JoinAction string

const (
	JoinKick     JoinAction = "kick"
	JoinBan      JoinAction = "ban"
	JoinGiveRole JoinAction = "give_role"
	JoinNone     JoinAction = "none"
)

type JoinDirective struct {
	Action     JoinAction `json:"action"`
	Reason     string     `json:"reason"`
	RolesToAdd []string   `json:"rolesToAdd"`
}
