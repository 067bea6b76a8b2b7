package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/dustin/go-humanize/english"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	listingsPerPage = 5
)

// Catalog is the marketplace as seen by the bot.
type Catalog interface {
	List(f marketplace.Filter) []material.Item
	Get(id string) (material.Item, error)
	Claim(id string) (material.Item, error)
	Stats(activeUsers int) material.ImpactStats
}

// ListingManager handles browsing and claiming catalog materials.
type ListingManager struct {
	tg      BotAPI
	catalog Catalog
}

// NewListingManager creates a new ListingManager
func NewListingManager(tg BotAPI, catalog Catalog) *ListingManager {
	return &ListingManager{tg: tg, catalog: catalog}
}

// HandleBrowseCommand handles the /browse command
func (m *ListingManager) HandleBrowseCommand(session *UserSession, query string) {
	session.browse.Filter = marketplace.Filter{Query: strings.TrimSpace(query)}
	session.browse.Page = 1
	m.refreshListingView(session, true) // true = send new message
}

// HandleBrowseCallback routes callbacks starting with "browse:"
func (m *ListingManager) HandleBrowseCallback(session *UserSession, query *tgbotapi.CallbackQuery) {
	data := query.Data

	// Buttons on alert notifications arrive without browse state
	if session.browse.Page == 0 {
		session.browse.Page = 1
	}

	switch {
	case strings.HasPrefix(data, "browse:page:"):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, "browse:page:"))
		session.browse.Page = max(page, 1)
		m.refreshListingView(session, false)

	case strings.HasPrefix(data, "browse:cat:"):
		session.browse.Filter.Category = categoryFromCallback(strings.TrimPrefix(data, "browse:cat:"))
		session.browse.Page = 1
		m.refreshListingView(session, false)

	case strings.HasPrefix(data, "browse:view:"):
		m.showItemDetail(session, strings.TrimPrefix(data, "browse:view:"))

	case data == "browse:close":
		m.deleteMenuMessage(session)
	}
}

// categoryFromCallback maps the callback suffix to a filter category. The
// suffix is an index into material.Categories since labels can be long.
func categoryFromCallback(s string) material.Category {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 || i >= len(material.Categories) {
		return ""
	}
	return material.Categories[i]
}

// refreshListingView renders the current page of the filtered catalog
func (m *ListingManager) refreshListingView(session *UserSession, forceNewMessage bool) {
	items := m.catalog.List(session.browse.Filter)

	total := len(items)
	limit := listingsPerPage
	totalPages := max((total+limit-1)/limit, 1)
	if session.browse.Page > totalPages {
		session.browse.Page = totalPages
	}
	offset := (session.browse.Page - 1) * limit
	end := min(offset+limit, total)
	pageItems := items[offset:end]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(MsgBrowseHeader, describeFilter(session.browse.Filter), session.browse.Page, totalPages, english.Plural(total, "material", "")))
	if total == 0 {
		sb.WriteString("\n")
		sb.WriteString(MsgBrowseEmpty)
	}

	var rows [][]tgbotapi.InlineKeyboardButton

	for _, item := range pageItems {
		title := item.Name
		maxTitleLen := 40
		titleRunes := []rune(title)
		if len(titleRunes) > maxTitleLen {
			title = string(titleRunes[:maxTitleLen-3]) + "..."
		}
		label := fmt.Sprintf("%s | %s kg", title, formatKg(item.WeightKg))

		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, "browse:view:"+item.ID),
		})
	}

	rows = append(rows, makeCategoryFilterRows(session.browse.Filter.Category)...)

	// Navigation row
	var navRow []tgbotapi.InlineKeyboardButton
	if session.browse.Page > 1 {
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData(BtnPrev, fmt.Sprintf("browse:page:%d", session.browse.Page-1)))
	}
	navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData(BtnClose, "browse:close"))
	if end < total {
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData(BtnNext, fmt.Sprintf("browse:page:%d", session.browse.Page+1)))
	}
	rows = append(rows, navRow)

	m.editOrSend(session, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...), forceNewMessage)
}

func describeFilter(f marketplace.Filter) string {
	var s string
	if f.Query != "" {
		s += fmt.Sprintf(MsgBrowseFilterQuery, escapeMarkdown(f.Query))
	}
	if f.Category != "" && f.Category != material.CategoryAll {
		s += fmt.Sprintf(MsgBrowseFilterCat, f.Category)
	}
	return s
}

// makeCategoryFilterRows lays out the category filter buttons, two per row.
// The active filter is marked with a bullet.
func makeCategoryFilterRows(active material.Category) [][]tgbotapi.InlineKeyboardButton {
	mark := func(label string, selected bool) string {
		if selected {
			return "• " + label
		}
		return label
	}

	allSelected := active == "" || active == material.CategoryAll
	rows := [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData(mark(BtnAll, allSelected), "browse:cat:all")},
	}

	var currentRow []tgbotapi.InlineKeyboardButton
	for i, c := range material.Categories {
		currentRow = append(currentRow, tgbotapi.NewInlineKeyboardButtonData(
			mark(string(c), c == active),
			fmt.Sprintf("browse:cat:%d", i),
		))
		if len(currentRow) == 2 || i == len(material.Categories)-1 {
			rows = append(rows, currentRow)
			currentRow = nil
		}
	}
	return rows
}

// showItemDetail renders a single material with a claim button
func (m *ListingManager) showItemDetail(session *UserSession, id string) {
	item, err := m.catalog.Get(id)
	if errors.Is(err, marketplace.ErrNotFound) {
		session.reply(MsgItemNotFound)
		return
	}
	if err != nil {
		session.replyWithError(err)
		return
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnClaim, "claim:"+item.ID),
			tgbotapi.NewInlineKeyboardButtonData(BtnBack, fmt.Sprintf("browse:page:%d", session.browse.Page)),
		),
	)
	m.editOrSend(session, formatItemDetail(item), markup, false)
}

func formatItemDetail(item material.Item) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(item.Name)))
	sb.WriteString(fmt.Sprintf("🏷 %s\n", escapeMarkdown(string(item.Category))))
	if item.Quantity != "" {
		sb.WriteString(fmt.Sprintf("📦 %s\n", escapeMarkdown(item.Quantity)))
	}
	sb.WriteString(fmt.Sprintf("⚖️ %s kg\n", formatKg(item.WeightKg)))
	sb.WriteString(fmt.Sprintf("📍 %s\n", escapeMarkdown(item.Location.Address)))
	sb.WriteString(fmt.Sprintf("👤 %s, %s\n", escapeMarkdown(item.DonorName), escapeMarkdown(item.PostedAt)))
	if item.Description != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", escapeMarkdown(item.Description)))
	}
	return sb.String()
}

// HandleClaimCallback claims a material for the signed-in user.
func (m *ListingManager) HandleClaimCallback(session *UserSession, query *tgbotapi.CallbackQuery) {
	user, err := session.currentUser()
	if err != nil {
		session.reply(MsgLoginRequired)
		return
	}

	id := strings.TrimPrefix(query.Data, "claim:")
	item, err := m.catalog.Claim(id)
	if errors.Is(err, marketplace.ErrNotFound) {
		session.reply(MsgItemNotFound)
		return
	}
	if err != nil {
		session.replyWithError(err)
		return
	}

	log.Info().
		Str("itemID", item.ID).
		Str("userID", user.ID).
		Float64("weightKg", item.WeightKg).
		Msg("material claimed")

	session.reply(MsgItemClaimed, escapeMarkdown(item.Name), escapeMarkdown(item.DonorName), escapeMarkdown(item.Location.Address))
	m.refreshListingView(session, false)
}

// editOrSend edits the existing menu message or sends a new one
func (m *ListingManager) editOrSend(session *UserSession, text string, markup tgbotapi.InlineKeyboardMarkup, forceNew bool) {
	if !forceNew && session.browse.MenuMsgID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(
			session.userId,
			session.browse.MenuMsgID,
			text,
			markup,
		)
		edit.ParseMode = tgbotapi.ModeMarkdown

		_, err := m.tg.Request(edit)
		if err == nil {
			return // Success
		}

		// Ignore "message is not modified" error
		if strings.Contains(err.Error(), "message is not modified") {
			return
		}

		// For other errors (message too old, deleted), fall through to send new
		log.Warn().Err(err).Int("msgID", session.browse.MenuMsgID).Msg("failed to edit browse menu")
	}

	msg := tgbotapi.NewMessage(session.userId, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = markup

	sent, err := m.tg.Send(msg)
	if err != nil {
		log.Error().Err(err).Msg("failed to send browse menu")
		return
	}

	// Delete old message if exists (to keep chat clean)
	if session.browse.MenuMsgID != 0 {
		m.tg.Request(tgbotapi.NewDeleteMessage(session.userId, session.browse.MenuMsgID))
	}

	session.browse.MenuMsgID = sent.MessageID
}

// deleteMenuMessage deletes the browse menu message
func (m *ListingManager) deleteMenuMessage(session *UserSession) {
	if session.browse.MenuMsgID != 0 {
		m.tg.Request(tgbotapi.NewDeleteMessage(session.userId, session.browse.MenuMsgID))
		session.browse.MenuMsgID = 0
	}
	session.browse.Page = 0
}
