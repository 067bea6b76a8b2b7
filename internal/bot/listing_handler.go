package bot

import (
	"context"
	"strings"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/listing"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// DraftService analyzes and publishes listing drafts.
type DraftService interface {
	Analyze(ctx context.Context, draft listing.Draft) listing.Draft
	Publish(draft listing.Draft, donorName string) material.Item
}

// ListingHandler runs the /add wizard for a new material listing.
type ListingHandler struct {
	tg     BotAPI
	drafts DraftService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(tg BotAPI, drafts DraftService) *ListingHandler {
	return &ListingHandler{
		tg:     tg,
		drafts: drafts,
	}
}

// HandleAddCommand starts a new draft.
// Called from session worker - no locking needed.
func (h *ListingHandler) HandleAddCommand(session *UserSession) {
	if session.draft != nil {
		session.reply(MsgDraftAlreadyActive)
		return
	}

	session.startDraft()
	startDraftLog(session.userId)
	session.reply(MsgDraftPromptName)
}

// HandleInput processes a wizard answer. Returns true if the message was
// consumed by the wizard.
// Called from session worker - no locking needed.
func (h *ListingHandler) HandleInput(session *UserSession, text string) bool {
	d := session.draft
	if d == nil || d.Step == DraftStepNone || strings.HasPrefix(text, "/") {
		return false
	}

	logDraftEvent(session.userId, draftEventInput, "%s: %s", d.Step, text)

	switch d.Step {
	case DraftStepAwaitingName:
		name := strings.TrimSpace(text)
		if name == "" {
			session.reply(MsgDraftEmptyName)
			return true
		}
		d.Draft.Name = name
		d.Step = DraftStepAwaitingQuantity
		session.reply(MsgDraftPromptQuantity)

	case DraftStepAwaitingQuantity:
		d.Draft.Quantity = optionalAnswer(text)
		d.Step = DraftStepAwaitingWeight
		session.reply(MsgDraftPromptWeight)

	case DraftStepAwaitingWeight:
		weight, err := parseWeight(text)
		if err != nil {
			session.reply(MsgDraftInvalidWeight)
			return true
		}
		d.Draft.WeightKg = weight
		d.Step = DraftStepAwaitingDescription
		session.reply(MsgDraftPromptDescription)

	case DraftStepAwaitingDescription:
		d.Draft.Description = optionalAnswer(text)
		d.Step = DraftStepAwaitingAddress
		session.reply(MsgDraftPromptAddress)

	case DraftStepAwaitingAddress:
		d.Draft.Address = optionalAnswer(text)
		d.Step = DraftStepReady
		logDraftEvent(session.userId, draftEventState, "draft ready")
		h.sendSummary(session)

	case DraftStepReady:
		session.reply(MsgDraftReadyHint)
	}

	return true
}

// sendSummary posts the draft with its action buttons.
func (h *ListingHandler) sendSummary(session *UserSession) {
	markup := makeDraftKeyboard(session.draft.Draft)
	sent := session.replyMarkdown(formatDraftSummary(session.draft.Draft), &markup)
	session.draft.SummaryMsgID = sent.MessageID
}

// removeSummaryButtons disables the buttons of the last summary message.
func (h *ListingHandler) removeSummaryButtons(session *UserSession) {
	if session.draft == nil || session.draft.SummaryMsgID == 0 {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(
		session.userId,
		session.draft.SummaryMsgID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	if _, err := h.tg.Request(edit); err != nil {
		log.Debug().Err(err).Int("msgID", session.draft.SummaryMsgID).Msg("failed to remove draft buttons")
	}
}

// HandleDraftCallback handles the buttons under the draft summary.
// Called from session worker - no locking needed.
func (h *ListingHandler) HandleDraftCallback(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	if session.draft == nil || session.draft.Step != DraftStepReady {
		session.reply(MsgDraftExpired)
		return
	}

	logDraftEvent(session.userId, draftEventCallback, "%s", query.Data)

	switch query.Data {
	case "draft:analyze":
		h.startAnalysis(ctx, session)
	case "draft:publish":
		h.HandlePublishCommand(session)
	case "draft:cancel":
		h.HandleCancel(session)
	}
}

// startAnalysis runs the AI analysis in the background. At most one analysis
// runs per session; the button is removed until the result arrives.
// Called from session worker - no locking needed.
func (h *ListingHandler) startAnalysis(ctx context.Context, session *UserSession) {
	if session.draft.Draft.Description == "" {
		session.reply(MsgAnalysisNeedsDesc)
		return
	}
	if !session.tryStartAnalysis() {
		session.reply(MsgAnalysisInProgress)
		return
	}

	h.removeSummaryButtons(session)
	session.reply(MsgAnalysisStarted)

	draft := session.draft.Draft
	generation := session.draft.Generation

	go func() {
		typingCtx, stopTyping := context.WithCancel(ctx)
		defer stopTyping()
		go session.startTypingLoop(typingCtx)

		analyzed := h.drafts.Analyze(ctx, draft)
		session.Send(SessionMessage{
			Type: "analysis_complete",
			Ctx:  ctx,
			Analysis: &AnalysisResult{
				Generation: generation,
				Draft:      analyzed,
			},
		})
	}()
}

// HandleAnalysisComplete merges a finished analysis into the draft.
// Called from session worker - no locking needed.
func (h *ListingHandler) HandleAnalysisComplete(session *UserSession, result *AnalysisResult) {
	defer session.finishAnalysis()

	if session.draft == nil || session.draft.Generation != result.Generation {
		log.Info().Int64("userId", session.userId).Msg("dropping analysis for discarded draft")
		return
	}

	session.draft.Draft = result.Draft
	if result.Draft.Impact != nil {
		logDraftEvent(session.userId, draftEventAnalysis, "category=%q co2Saved=%s",
			result.Draft.Category, llm.FormatWeight(result.Draft.Impact.CO2Saved))
	}
	h.sendSummary(session)
}

// HandlePublishCommand publishes the finished draft to the catalog.
// Called from session worker - no locking needed.
func (h *ListingHandler) HandlePublishCommand(session *UserSession) {
	user, err := session.currentUser()
	if err != nil {
		session.reply(MsgLoginRequired)
		return
	}

	if session.draft == nil {
		session.reply(MsgDraftNone)
		return
	}
	if session.draft.Step != DraftStepReady {
		session.reply(MsgDraftIncomplete)
		return
	}
	if session.IsAnalyzing() {
		session.reply(MsgAnalysisInProgress)
		return
	}

	h.removeSummaryButtons(session)
	item := h.drafts.Publish(session.draft.Draft, user.Name)
	logDraftEvent(session.userId, draftEventState, "published %s", item.ID)

	session.draft = nil
	session.reply(MsgDraftPublished, escapeMarkdown(item.Name))
}

// HandleCancel discards the current draft.
// Called from session worker - no locking needed.
func (h *ListingHandler) HandleCancel(session *UserSession) {
	h.removeSummaryButtons(session)
	session.reset()
	session.replyAndRemoveCustomKeyboard(MsgDraftCancelled)
}
