package bot

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/storage"
	"github.com/dustin/go-humanize/english"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	searchResultsLimit = 5
	searchTitleRunes   = 40
	MaxWatchesPerUser  = 10

	deleteButtonsPerRow = 4
)

// Callback data of the alert buttons. Delete carries the watch id after a colon.
const (
	watchActionCreate = "create"
	watchActionDelete = "delete"
	watchActionClose  = "close"
)

// WatchStore persists material alerts.
type WatchStore interface {
	CreateWatch(userID int64, query string) (*storage.Watch, error)
	GetWatchesByUser(userID int64) ([]storage.Watch, error)
	DeleteWatch(id string, userID int64) error
	CountWatchesByUser(userID int64) (int, error)
	WatchExistsForQuery(userID int64, query string) (bool, error)
	MarkItemsSeenBatch(watchID string, itemIDs []string) error
}

// WatchHandler serves /search, /watch and /watches.
type WatchHandler struct {
	tg      BotAPI
	store   WatchStore
	catalog Catalog
}

func NewWatchHandler(tg BotAPI, store WatchStore, catalog Catalog) *WatchHandler {
	return &WatchHandler{tg: tg, store: store, catalog: catalog}
}

func watchCallback(action string, args ...string) string {
	return strings.Join(append([]string{"watch", action}, args...), ":")
}

// HandleSearchCommand lists the first matches and offers an alert for the
// query, which is remembered until the button is pressed.
func (h *WatchHandler) HandleSearchCommand(session *UserSession, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		session.reply(MsgSearchQueryMissing)
		return
	}
	session.search.PendingQuery = query

	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnCreateWatch, watchCallback(watchActionCreate)),
	))
	session.replyMarkdown(formatSearchResults(query, h.catalog.List(marketplace.Filter{Query: query})), &keyboard)
}

func formatSearchResults(query string, items []material.Item) string {
	if len(items) == 0 {
		return fmt.Sprintf(MsgSearchNoResults, escapeMarkdown(query))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, MsgSearchResults, escapeMarkdown(query), english.Plural(len(items), "match", "matches"))
	for i, item := range items[:min(len(items), searchResultsLimit)] {
		fmt.Fprintf(&sb, "%d. %s, %s kg", i+1, escapeMarkdown(shortTitle(item.Name)), formatKg(item.WeightKg))
		if addr := item.Location.Address; addr != "" {
			fmt.Fprintf(&sb, " (%s)", escapeMarkdown(addr))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func shortTitle(title string) string {
	r := []rune(title)
	if len(r) <= searchTitleRunes {
		return title
	}
	return string(r[:searchTitleRunes-3]) + "..."
}

// HandleWatchCommand creates an alert without searching first.
func (h *WatchHandler) HandleWatchCommand(session *UserSession, query string) {
	if query = strings.TrimSpace(query); query == "" {
		session.reply(MsgWatchQueryMissing)
		return
	}
	h.createWatch(session, query)
}

// HandleWatchesCommand lists the user's alerts with delete buttons.
func (h *WatchHandler) HandleWatchesCommand(session *UserSession) {
	watches, err := h.store.GetWatchesByUser(session.userId)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Msg("failed to get watches")
		session.replyWithError(err)
		return
	}
	if len(watches) == 0 {
		session.reply(MsgNoWatches)
		return
	}

	markup := makeWatchesKeyboard(watches)
	session.replyMarkdown(formatWatches(watches), &markup)
}

func formatWatches(watches []storage.Watch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, MsgWatchesHeader, len(watches))
	for i, w := range watches {
		fmt.Fprintf(&sb, MsgWatchItem, i+1, escapeMarkdown(w.Query))
	}
	return sb.String()
}

func makeWatchesKeyboard(watches []storage.Watch) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, len(watches))
	for i, w := range watches {
		buttons[i] = tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %d", BtnDeleteWatch, i+1),
			watchCallback(watchActionDelete, w.ID),
		)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for row := range slices.Chunk(buttons, deleteButtonsPerRow) {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnClose, watchCallback(watchActionClose)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// HandleWatchCallback dispatches the "watch:" buttons.
func (h *WatchHandler) HandleWatchCallback(session *UserSession, query *tgbotapi.CallbackQuery) {
	action, arg, _ := strings.Cut(strings.TrimPrefix(query.Data, "watch:"), ":")

	switch action {
	case watchActionCreate:
		h.createFromSearch(session, query.Message)
	case watchActionDelete:
		h.deleteWatch(session, query.Message, arg)
	case watchActionClose:
		h.deleteMessage(query.Message)
	default:
		log.Warn().Str("data", query.Data).Msg("unknown watch callback")
	}
}

func (h *WatchHandler) createFromSearch(session *UserSession, msg *tgbotapi.Message) {
	query := session.search.PendingQuery
	if query == "" {
		if msg != nil {
			h.tg.Request(tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, MsgSearchQueryExpired))
		}
		return
	}
	session.search.PendingQuery = ""

	if msg != nil {
		h.tg.Request(tgbotapi.NewEditMessageReplyMarkup(msg.Chat.ID, msg.MessageID,
			tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}))
	}
	h.createWatch(session, query)
}

// deleteWatch removes an alert and refreshes the list message in place.
func (h *WatchHandler) deleteWatch(session *UserSession, msg *tgbotapi.Message, watchID string) {
	err := h.store.DeleteWatch(watchID, session.userId)
	switch {
	case errors.Is(err, storage.ErrWatchNotFound):
		session.reply(MsgWatchNotFound)
		return
	case err != nil:
		log.Error().Err(err).Str("watchID", watchID).Msg("failed to delete watch")
		session.replyWithError(err)
		return
	}
	log.Info().Str("watchID", watchID).Int64("userId", session.userId).Msg("watch deleted")

	remaining, err := h.store.GetWatchesByUser(session.userId)
	if err != nil {
		log.Error().Err(err).Msg("failed to refresh watches")
		session.reply(MsgWatchDeleted)
		return
	}
	if len(remaining) == 0 {
		h.deleteMessage(msg)
		session.reply(MsgWatchDeleted + "\n\n" + MsgNoWatches)
		return
	}
	if msg == nil {
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(msg.Chat.ID, msg.MessageID,
		formatWatches(remaining), makeWatchesKeyboard(remaining))
	edit.ParseMode = tgbotapi.ModeMarkdown
	h.tg.Request(edit)
}

func (h *WatchHandler) deleteMessage(msg *tgbotapi.Message) {
	if msg != nil {
		h.tg.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID))
	}
}

// createWatch enforces one alert per query and MaxWatchesPerUser, then marks
// the current matches as seen so only later listings are notified.
func (h *WatchHandler) createWatch(session *UserSession, query string) {
	if refusal, err := h.refuseWatch(session.userId, query); err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Msg("failed to check watch limits")
		session.replyWithError(err)
		return
	} else if refusal != "" {
		session.reply("%s", refusal)
		return
	}

	watch, err := h.store.CreateWatch(session.userId, query)
	if err != nil {
		log.Error().Err(err).Msg("failed to create watch")
		session.replyWithError(err)
		return
	}
	log.Info().
		Str("watchID", watch.ID).
		Int64("userId", session.userId).
		Str("query", query).
		Msg("watch created")

	h.markCurrentMatchesSeen(watch.ID, query)
	session.reply(MsgWatchCreated, escapeMarkdown(query))
}

// refuseWatch returns the reply explaining why the alert cannot be created,
// or "" when it can.
func (h *WatchHandler) refuseWatch(userID int64, query string) (string, error) {
	exists, err := h.store.WatchExistsForQuery(userID, query)
	if err != nil {
		return "", err
	}
	if exists {
		return fmt.Sprintf(MsgWatchAlreadyExists, escapeMarkdown(query)), nil
	}

	count, err := h.store.CountWatchesByUser(userID)
	if err != nil {
		return "", err
	}
	if count >= MaxWatchesPerUser {
		return fmt.Sprintf(MsgWatchLimitReached, MaxWatchesPerUser), nil
	}
	return "", nil
}

func (h *WatchHandler) markCurrentMatchesSeen(watchID, query string) {
	items := h.catalog.List(marketplace.Filter{Query: query})
	if len(items) == 0 {
		return
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	if err := h.store.MarkItemsSeenBatch(watchID, ids); err != nil {
		log.Warn().Err(err).Str("watchID", watchID).Msg("failed to mark items as seen")
		return
	}
	log.Debug().Str("watchID", watchID).Int("count", len(ids)).Msg("marked current matches seen")
}
