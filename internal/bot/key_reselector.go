package bot

import (
	"context"
	"sync"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// KeyReselectCooldown limits how often the admin is asked for a new key.
const KeyReselectCooldown = 10 * time.Minute

// AdminKeyReselector asks the admin for a new Gemini API key when the model
// rejects the current one.
type AdminKeyReselector struct {
	tg       MessageSender
	adminID  int64
	cooldown time.Duration

	mu       sync.Mutex
	lastSent time.Time
}

var _ llm.KeyReselector = (*AdminKeyReselector)(nil)

// NewAdminKeyReselector creates a reselector that messages adminID.
func NewAdminKeyReselector(tg MessageSender, adminID int64) *AdminKeyReselector {
	return &AdminKeyReselector{
		tg:       tg,
		adminID:  adminID,
		cooldown: KeyReselectCooldown,
	}
}

// RequestNewKey sends the admin a message asking for /setkey. Requests within
// the cooldown of the previous message are dropped.
func (r *AdminKeyReselector) RequestNewKey(ctx context.Context, cause error) {
	r.mu.Lock()
	if !r.lastSent.IsZero() && time.Since(r.lastSent) < r.cooldown {
		r.mu.Unlock()
		log.Debug().Msg("key reselection already requested recently")
		return
	}
	r.lastSent = time.Now()
	r.mu.Unlock()

	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}

	msg := tgbotapi.NewMessage(r.adminID, formatReplyText(MsgKeyReselectRequired, escapeMarkdown(reason)))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.tg.Send(msg); err != nil {
		log.Error().Err(err).Int64("adminID", r.adminID).Msg("failed to ask admin for a new API key")
		return
	}
	log.Warn().Int64("adminID", r.adminID).Msg("asked admin for a new API key")
}
