package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/listing"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// ErrLoginRequired is returned for actions that need a signed-in user.
var ErrLoginRequired = errors.New("login required")

// SessionMessage represents a message to be processed by the session worker.
type SessionMessage struct {
	Type string
	Ctx  context.Context
	Done chan struct{} // Closed when processing is complete (for synchronous dispatch)

	// Message data (only one is set based on Type)
	Message       *tgbotapi.Message
	CallbackQuery *tgbotapi.CallbackQuery
	Text          string          // For tests driving the worker directly
	Analysis      *AnalysisResult // For analysis_complete messages
}

// escapeMarkdown escapes special characters for Telegram Markdown V1
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "*", "\\*")
	text = strings.ReplaceAll(text, "_", "\\_")
	text = strings.ReplaceAll(text, "`", "\\`")
	text = strings.ReplaceAll(text, "[", "\\[")
	return text
}

// MessageSender is the part of the Telegram API a session replies through.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// BrowseState holds state for browsing the catalog.
type BrowseState struct {
	Filter    marketplace.Filter
	Page      int // 1-based
	MenuMsgID int // Message ID to edit for navigation
}

// SearchWatchState holds state for the material alert feature.
type SearchWatchState struct {
	PendingQuery string // Query from the last /search command for the alert button
}

// MessageHandler processes messages taken from a session's inbox.
type MessageHandler interface {
	HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage)
}

// UserSession represents a user's session with the bot.
//
// Threading model:
//   - Each session has a dedicated worker goroutine that processes messages sequentially
//   - Message handlers are called only from the worker and can access session
//     state without locks
//   - The analysis flag is also read from tests and background goroutines, so
//     it is guarded by mu
type UserSession struct {
	userId int64
	sender MessageSender
	mu     sync.Mutex

	// Worker channel for sequential message processing
	inbox   chan SessionMessage
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	handler MessageHandler // Set after construction to avoid circular deps

	user     *material.User // nil when not signed in
	authFlow *AuthFlow
	draft    *ListingDraft
	browse   BrowseState
	search   SearchWatchState

	draftGeneration int
	analyzing       bool
}

// isLoggedIn returns true if the user has signed in (internal, no lock)
func (s *UserSession) isLoggedIn() bool {
	return s.user != nil
}

// currentUser returns the signed-in user or ErrLoginRequired.
func (s *UserSession) currentUser() (*material.User, error) {
	if s.user == nil {
		return nil, ErrLoginRequired
	}
	return s.user, nil
}

// --- Thread-safe accessors ---

// IsLoggedIn returns true if the user has signed in.
func (s *UserSession) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// IsAnalyzing returns true while an AI analysis of the draft is running.
func (s *UserSession) IsAnalyzing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzing
}

// tryStartAnalysis sets the analysis flag. It returns false if an analysis is
// already in flight.
func (s *UserSession) tryStartAnalysis() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analyzing {
		return false
	}
	s.analyzing = true
	return true
}

func (s *UserSession) finishAnalysis() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzing = false
}

// --- Auth flow accessors ---

// IsAuthFlowActive returns true if a login flow is in progress.
func (s *UserSession) IsAuthFlowActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authFlow != nil && s.authFlow.IsActive()
}

// IsAuthFlowTimedOut returns true if the login flow has timed out.
func (s *UserSession) IsAuthFlowTimedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authFlow != nil && s.authFlow.IsTimedOut()
}

// GetAuthFlowState returns the current login flow state.
func (s *UserSession) GetAuthFlowState() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authFlow == nil {
		return AuthStateNone
	}
	return s.authFlow.State
}

// GetDraftStep returns the wizard step, or DraftStepNone if there is no draft.
func (s *UserSession) GetDraftStep() DraftStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return DraftStepNone
	}
	return s.draft.Step
}

// startDraft replaces any current draft with an empty one.
// Called from session worker - no locking needed.
func (s *UserSession) startDraft() *ListingDraft {
	s.draftGeneration++
	s.draft = &ListingDraft{
		Step:       DraftStepAwaitingName,
		Draft:      listing.NewDraft(),
		Generation: s.draftGeneration,
	}
	return s.draft
}

func (s *UserSession) reset() {
	log.Info().Int64("userId", s.userId).Msg("reset user session")
	if s.authFlow != nil {
		s.authFlow.Reset()
	}
	// A running analysis finishes on its own; its result is dropped because
	// the generation no longer matches.
	s.draftGeneration++
	s.draft = nil
	s.browse = BrowseState{}
	s.search = SearchWatchState{}
}

func (s *UserSession) replyWithError(err error) tgbotapi.Message {
	log.Error().Stack().Err(err).Send()
	return s.replyText(formatReplyText(MsgUnexpectedErr, err), false)
}

// typingInterval is below Telegram's ~5s expiry of a chat action.
const typingInterval = 4 * time.Second

// startTypingLoop shows "typing..." until ctx is cancelled.
func (s *UserSession) startTypingLoop(ctx context.Context) {
	ticker := time.NewTicker(typingInterval)
	defer ticker.Stop()

	for {
		// sendChatAction returns a bool, so it goes through Request
		if _, err := s.sender.Request(tgbotapi.NewChatAction(s.userId, tgbotapi.ChatTyping)); err != nil {
			log.Debug().Err(err).Int64("userId", s.userId).Msg("failed to send typing action")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *UserSession) replyWithMessage(msg tgbotapi.MessageConfig) tgbotapi.Message {
	msg.ChatID = s.userId
	sent, err := s.sender.Send(msg)
	if err != nil {
		log.Error().Stack().
			Int64("userId", s.userId).
			Str("text", msg.Text).
			Err(fmt.Errorf("failed to send reply message: %w", err)).Send()
		return sent
	}
	log.Debug().Int64("userId", s.userId).Int("messageId", sent.MessageID).Msg("sent message")
	return sent
}

func (s *UserSession) replyText(text string, removeKeyboard bool) tgbotapi.Message {
	msg := tgbotapi.NewMessage(s.userId, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if removeKeyboard {
		// Custom reply keyboards stay until replaced or removed
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	return s.replyWithMessage(msg)
}

func (s *UserSession) reply(text string, a ...any) tgbotapi.Message {
	return s.replyText(formatReplyText(text, a...), false)
}

func (s *UserSession) replyAndRemoveCustomKeyboard(text string, a ...any) tgbotapi.Message {
	return s.replyText(formatReplyText(text, a...), true)
}

// replyMarkdown sends prebuilt Markdown text with an optional inline keyboard.
func (s *UserSession) replyMarkdown(text string, markup *tgbotapi.InlineKeyboardMarkup) tgbotapi.Message {
	msg := tgbotapi.NewMessage(s.userId, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	return s.replyWithMessage(msg)
}
