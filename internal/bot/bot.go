package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// keyValidationTimeout bounds the /setkey round trip to the model API.
const keyValidationTimeout = 15 * time.Second

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// KeyValidator checks a model API key before it is stored.
type KeyValidator interface {
	Validate(ctx context.Context, key string) error
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg       BotAPI
	sessions *sessionRegistry
	store    storage.Store
	catalog  Catalog
	keys     KeyValidator
	adminID  int64

	// Handlers
	authHandler    *AuthHandler
	listingHandler *ListingHandler
	listingManager *ListingManager
	watchHandler   *WatchHandler
}

// NewBot creates a new Bot instance.
func NewBot(tg BotAPI, store storage.Store, catalog Catalog, drafts DraftService, adminID int64) *Bot {
	bot := &Bot{
		tg:      tg,
		store:   store,
		catalog: catalog,
		adminID: adminID,
	}

	bot.sessions = newSessionRegistry(tg, bot, store)
	bot.authHandler = NewAuthHandler(tg, store)
	bot.listingHandler = NewListingHandler(tg, drafts)
	bot.listingManager = NewListingManager(tg, catalog)
	bot.watchHandler = NewWatchHandler(tg, store, catalog)

	return bot
}

// SetKeyValidator enables /setkey validation against the model API.
func (b *Bot) SetKeyValidator(v KeyValidator) {
	b.keys = v
}

// Shutdown stops all session workers.
func (b *Bot) Shutdown() {
	b.sessions.stopAll()
}

// HandleUpdate is the main message router.
// It dispatches messages to the appropriate session worker for sequential processing.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like HandleUpdate but waits for message processing to complete.
// Used in tests where we need synchronous behavior.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

// dispatchUpdate routes updates to the appropriate session worker.
// If sync is true, it waits for message processing to complete.
func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64

	if update.CallbackQuery != nil {
		userId = update.CallbackQuery.From.ID
	} else if update.Message != nil && update.Message.From != nil {
		userId = update.Message.From.ID
	} else {
		return
	}

	session := b.sessions.get(userId)

	send := func(msg SessionMessage) {
		if sync {
			session.SendSync(msg)
		} else {
			session.Send(msg)
		}
	}

	if update.CallbackQuery != nil {
		send(SessionMessage{
			Type:          "callback",
			Ctx:           ctx,
			CallbackQuery: update.CallbackQuery,
		})
		return
	}

	log.Info().Int64("userId", userId).Str("text", update.Message.Text).Msg("got message")
	send(SessionMessage{
		Type:    "text",
		Ctx:     ctx,
		Message: update.Message,
	})
}

// HandleSessionMessage implements MessageHandler interface.
// This is called by the session worker goroutine for sequential processing.
// No mutex locking is needed here since only one goroutine accesses session state.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Type {
	case "callback":
		b.handleCallbackQuery(ctx, session, msg.CallbackQuery)
	case "text":
		b.handleTextMessage(ctx, session, msg.Message)
	case "analysis_complete":
		b.listingHandler.HandleAnalysisComplete(session, msg.Analysis)
	}
}

// handleTextMessage processes text messages.
// Called from session worker - no locking needed.
func (b *Bot) handleTextMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	if b.authHandler.HandleMessage(ctx, session, message.Text) {
		return
	}

	if b.listingHandler.HandleInput(session, message.Text) {
		return
	}

	b.handleCommand(ctx, session, message)
}

// handleCommand processes bot commands.
// Called from session worker - no locking needed.
func (b *Bot) handleCommand(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	command, args := parseCommand(message.Text)
	argsStr := strings.Join(args, " ")
	switch command {
	case "/start":
		b.replyGreeting(session)
	case "/help":
		session.reply("%s", helpText())
	case "/login":
		b.authHandler.HandleLoginCommand(session, false)
	case "/signup":
		b.authHandler.HandleLoginCommand(session, true)
	case "/logout":
		b.authHandler.HandleLogoutCommand(session)
	case "/add":
		if !b.requireLogin(session) {
			return
		}
		b.listingHandler.HandleAddCommand(session)
	case "/publish":
		b.listingHandler.HandlePublishCommand(session)
	case "/cancel":
		if session.draft != nil {
			b.listingHandler.HandleCancel(session)
			return
		}
		session.reset()
		session.replyAndRemoveCustomKeyboard(MsgOk)
	case "/browse":
		b.listingManager.HandleBrowseCommand(session, argsStr)
	case "/search":
		b.watchHandler.HandleSearchCommand(session, argsStr)
	case "/watch":
		if !b.requireLogin(session) {
			return
		}
		b.watchHandler.HandleWatchCommand(session, argsStr)
	case "/watches":
		b.watchHandler.HandleWatchesCommand(session)
	case "/stats":
		b.handleStatsCommand(session)
	case "/setkey":
		b.handleSetKeyCommand(ctx, session, message, argsStr)
	default:
		b.replyGreeting(session)
	}
}

func (b *Bot) replyGreeting(session *UserSession) {
	if session.isLoggedIn() {
		session.reply(MsgStartPrompt, escapeMarkdown(session.user.Name))
		return
	}
	session.reply(MsgWelcome)
}

// requireLogin replies with the login hint when nobody is signed in.
func (b *Bot) requireLogin(session *UserSession) bool {
	if _, err := session.currentUser(); errors.Is(err, ErrLoginRequired) {
		session.reply(MsgLoginRequired)
		return false
	}
	return true
}

// handleCallbackQuery handles inline keyboard button presses.
// Called from session worker - no locking needed.
func (b *Bot) handleCallbackQuery(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	b.tg.Request(callback)

	switch {
	case strings.HasPrefix(query.Data, "role:"):
		b.authHandler.HandleRoleCallback(session, query)
	case strings.HasPrefix(query.Data, "draft:"):
		b.listingHandler.HandleDraftCallback(ctx, session, query)
	case strings.HasPrefix(query.Data, "browse:"):
		b.listingManager.HandleBrowseCallback(session, query)
	case strings.HasPrefix(query.Data, "claim:"):
		b.listingManager.HandleClaimCallback(session, query)
	case strings.HasPrefix(query.Data, "watch:"):
		b.watchHandler.HandleWatchCallback(session, query)
	default:
		log.Warn().Str("data", query.Data).Msg("unknown callback")
	}
}

// handleStatsCommand shows the campus-wide impact figures.
func (b *Bot) handleStatsCommand(session *UserSession) {
	activeUsers := 0
	if b.store != nil {
		n, err := b.store.CountUsers()
		if err != nil {
			log.Warn().Err(err).Msg("failed to count users")
		} else {
			activeUsers = n
		}
	}

	session.replyMarkdown(formatStats(b.catalog.Stats(activeUsers)), nil)
}

func formatStats(stats material.ImpactStats) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(MsgStats,
		formatKg(stats.TotalDivertedKg),
		formatKg(stats.CarbonSavedKg),
		stats.ItemsRedistributed,
		stats.ActiveUsers,
	))

	if len(stats.DivertedByCategory) > 0 {
		sb.WriteString("\n")
	}
	categories := append([]material.Category{}, material.Categories...)
	categories = append(categories, material.CategoryOther)
	for _, c := range categories {
		kg, ok := stats.DivertedByCategory[c]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf(MsgStatsCategoryLine, c, formatKg(kg)))
	}
	return sb.String()
}

// handleSetKeyCommand replaces the stored model API key.
// Only the admin user can use this command.
func (b *Bot) handleSetKeyCommand(ctx context.Context, session *UserSession, message *tgbotapi.Message, key string) {
	if session.userId != b.adminID {
		return // Silent drop for non-admin users
	}

	// The key should not stay in the chat history
	if message.Chat != nil {
		b.tg.Request(tgbotapi.NewDeleteMessage(message.Chat.ID, message.MessageID))
	}

	if key == "" {
		session.reply(MsgSetKeyUsage)
		return
	}
	if b.store == nil {
		session.reply(MsgSetKeyNotAvailable)
		return
	}

	if b.keys != nil {
		vctx, cancel := context.WithTimeout(ctx, keyValidationTimeout)
		defer cancel()
		if err := b.keys.Validate(vctx, key); err != nil {
			log.Warn().Err(err).Msg("rejected new API key")
			session.reply(MsgSetKeyInvalid, escapeMarkdown(err.Error()))
			return
		}
	}

	if err := b.store.SetAPIKey(key); err != nil {
		session.replyWithError(err)
		return
	}

	log.Info().Int64("userId", session.userId).Msg("API key updated")
	session.reply(MsgSetKeySaved)
}
