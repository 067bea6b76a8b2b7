package bot

import (
	"fmt"
	"strings"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/listing"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DraftStep represents the current step of the /add wizard.
type DraftStep int

const (
	DraftStepNone DraftStep = iota
	DraftStepAwaitingName
	DraftStepAwaitingQuantity
	DraftStepAwaitingWeight
	DraftStepAwaitingDescription
	DraftStepAwaitingAddress
	DraftStepReady
)

func (s DraftStep) String() string {
	switch s {
	case DraftStepNone:
		return "None"
	case DraftStepAwaitingName:
		return "AwaitingName"
	case DraftStepAwaitingQuantity:
		return "AwaitingQuantity"
	case DraftStepAwaitingWeight:
		return "AwaitingWeight"
	case DraftStepAwaitingDescription:
		return "AwaitingDescription"
	case DraftStepAwaitingAddress:
		return "AwaitingAddress"
	case DraftStepReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// ListingDraft is the wizard state around a listing.Draft.
type ListingDraft struct {
	Step  DraftStep
	Draft listing.Draft

	// Generation changes whenever the draft is replaced, so analysis results
	// for a discarded draft can be recognised and dropped.
	Generation   int
	SummaryMsgID int
}

// AnalysisResult is posted back to the session worker when a background
// analysis finishes.
type AnalysisResult struct {
	Generation int
	Draft      listing.Draft
}

// skipAnswer is typed to leave an optional wizard field empty.
const skipAnswer = "-"

func optionalAnswer(text string) string {
	text = strings.TrimSpace(text)
	if text == skipAnswer {
		return ""
	}
	return text
}

// formatDraftSummary renders the draft as shown before publishing.
func formatDraftSummary(d listing.Draft) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(d.Name)))
	if d.Quantity != "" {
		sb.WriteString(fmt.Sprintf("📦 %s\n", escapeMarkdown(d.Quantity)))
	}
	sb.WriteString(fmt.Sprintf("⚖️ %s kg\n", llm.FormatWeight(d.WeightKg)))
	address := d.Address
	if address == "" {
		address = listing.DefaultAddress
	}
	sb.WriteString(fmt.Sprintf("📍 %s\n", escapeMarkdown(address)))
	if d.Description != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", escapeMarkdown(d.Description)))
	}

	if d.Category != "" {
		sb.WriteString("\n")
		sb.WriteString(formatReplyText(MsgAnalysisCategoryLine, escapeMarkdown(d.Category)))
		sb.WriteString("\n")
		if d.Reason != "" {
			sb.WriteString(formatReplyText(MsgAnalysisReasonLine, escapeMarkdown(d.Reason)))
			sb.WriteString("\n")
		}
	}
	if d.Impact != nil {
		sb.WriteString(formatReplyText(MsgAnalysisImpactLine, formatKg(d.Impact.CO2Saved)))
		sb.WriteString("\n")
		sb.WriteString(formatReplyText(MsgAnalysisStatement, escapeMarkdown(d.Impact.ImpactStatement)))
		sb.WriteString("\n")
	}

	return sb.String()
}

// makeDraftKeyboard returns the buttons under the draft summary.
func makeDraftKeyboard(d listing.Draft) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if d.Description != "" {
		label := BtnAnalyze
		if d.Analyzed() {
			label = BtnReanalyze
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "draft:analyze"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnPublish, "draft:publish"),
		tgbotapi.NewInlineKeyboardButtonData(BtnCancel, "draft:cancel"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
