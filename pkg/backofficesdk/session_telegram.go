package backofficesdk

import (
	"context"
	"net/http"
	"time"

	"github.com/kantorkita/backoffice/pkg/querycache"
)

const tagTelegram = "Telegram"

// telegramStatusGrace keeps the bot-status entry resident between polls of a
// status widget that unmounts and remounts frequently.
const telegramStatusGrace = 15 * time.Second

// TelegramStatus returns the notification bot's health. The entry is served
// stale-while-revalidate so status widgets render immediately.
func (s *Session) TelegramStatus(ctx context.Context) (TelegramStatus, error) {
	opts := querycache.Options{
		Tags:       []querycache.Tag{querycache.NewTag(tagTelegram)},
		KeepUnused: telegramStatusGrace,
		ServeStale: true,
	}
	return cachedOne[TelegramStatus](ctx, s, "/api/telegram/status", nil, opts)
}

// SendTelegramTest sends a test message through the bot and invalidates the
// status entry (pending-update counters change).
func (s *Session) SendTelegramTest(ctx context.Context, chatID, message string) error {
	body := map[string]string{"chat_id": chatID, "message": message}
	return s.mutate(ctx, http.MethodPost, "/api/telegram/test", body, nil,
		querycache.NewTag(tagTelegram))
}
