package infra

import "fmt"

const (
	// RedisNamespace базовый префикс для изоляции данных бота в Redis
	RedisNamespace = "ultibot"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanSettingsUpdate: панель публикует сюда ID сервера после изменения настроек.
	RedisChanSettingsUpdate = RedisNamespace + ":settings-update"
)

// CooldownKey: ключ кулдауна начисления опыта для пары сервер/пользователь.
func CooldownKey(guildID, userID string) string {
	return fmt.Sprintf("%s-%s", guildID, userID)
}

// RedisCooldownKey переводит ключ кулдауна в пространство имён Redis.
func RedisCooldownKey(key string) string {
	return fmt.Sprintf("%s:xp:cooldown:%s", RedisNamespace, key)
}
