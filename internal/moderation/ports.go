package moderation

import "context"

// NoticeBoard: канал уведомлений о заявках. Сообщение на платформе и есть
// хранилище состояния заявки: другого нет.
type NoticeBoard interface {
	// PostNotice возвращает domain.ErrConfigurationMissing, если канала нет на сервере.
	PostNotice(ctx context.Context, guildID, channelID string, view NoticeView) (string, error)
	EditNotice(ctx context.Context, channelID, messageID string, view NoticeView) error
}

// Notifier доставляет личные сообщения. Fire-and-forget: сбой доставки не влияет на заявку.
type Notifier interface {
	Notify(ctx context.Context, userID, content string)
}
