package bot

import (
	"context"
	"net/mail"
	"strings"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles the login and signup flow for the bot.
type AuthHandler struct {
	tg    BotAPI
	users storage.UserStore
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tg BotAPI, users storage.UserStore) *AuthHandler {
	return &AuthHandler{
		tg:    tg,
		users: users,
	}
}

// HandleMessage handles messages during the login flow.
// Returns true if the message was handled (login flow is active).
// Called from session worker - no locking needed.
func (h *AuthHandler) HandleMessage(ctx context.Context, session *UserSession, text string) bool {
	if session.IsAuthFlowTimedOut() {
		session.authFlow.Reset()
		session.reply(MsgLoginTimeout)
		return true
	}

	if !session.IsAuthFlowActive() {
		return false
	}

	h.handleAuthFlowMessage(ctx, session, text)
	return true
}

// handleAuthFlowMessage handles messages during the login flow.
// Called from session worker - no locking needed.
func (h *AuthHandler) handleAuthFlowMessage(ctx context.Context, session *UserSession, text string) {
	if text == "/cancel" {
		session.authFlow.Reset()
		session.replyAndRemoveCustomKeyboard(MsgLoginCancelled)
		return
	}

	// Reject other commands during login flow
	if len(text) > 0 && text[0] == '/' {
		session.reply(MsgLoginInProgress)
		return
	}

	session.authFlow.Touch()

	switch session.authFlow.State {
	case AuthStateAwaitingRole:
		role, ok := material.ParseRole(strings.ToLower(strings.TrimSpace(text)))
		if !ok {
			h.promptRole(session)
			return
		}
		h.selectRole(session, role)
	case AuthStateAwaitingName:
		h.handleName(session, text)
	case AuthStateAwaitingEmail:
		h.handleEmail(session, text)
	}
}

// HandleLoginCommand starts the login flow. With signup set the user is also
// asked for a display name.
// Called from session worker - no locking needed.
func (h *AuthHandler) HandleLoginCommand(session *UserSession, signup bool) {
	if session.isLoggedIn() {
		session.reply(MsgLoginAlreadyLoggedIn, escapeMarkdown(session.user.Name))
		return
	}

	session.authFlow.begin(signup)
	h.promptRole(session)
}

// HandleRoleCallback handles the role buttons of the login form.
// Called from session worker - no locking needed.
func (h *AuthHandler) HandleRoleCallback(session *UserSession, query *tgbotapi.CallbackQuery) {
	if query.Message != nil {
		h.tg.Request(tgbotapi.NewEditMessageReplyMarkup(
			query.Message.Chat.ID,
			query.Message.MessageID,
			tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
		))
	}

	if session.authFlow.State != AuthStateAwaitingRole {
		session.reply(MsgLoginRoleExpired)
		return
	}

	role, ok := material.ParseRole(strings.TrimPrefix(query.Data, "role:"))
	if !ok {
		log.Warn().Str("data", query.Data).Msg("unknown role in callback")
		h.promptRole(session)
		return
	}

	session.authFlow.Touch()
	h.selectRole(session, role)
}

func (h *AuthHandler) promptRole(session *UserSession) {
	msg := tgbotapi.NewMessage(session.userId, MsgLoginSelectRole)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnStudent, "role:"+string(material.RoleStudent)),
			tgbotapi.NewInlineKeyboardButtonData(BtnIndustry, "role:"+string(material.RoleIndustry)),
			tgbotapi.NewInlineKeyboardButtonData(BtnLab, "role:"+string(material.RoleLab)),
		),
	)
	session.replyWithMessage(msg)
}

func (h *AuthHandler) selectRole(session *UserSession, role material.Role) {
	session.authFlow.Role = role

	if !session.authFlow.Signup {
		session.authFlow.State = AuthStateAwaitingEmail
		session.reply(MsgLoginPromptEmail)
		return
	}

	session.authFlow.State = AuthStateAwaitingName
	if role == material.RoleStudent {
		session.reply(MsgLoginPromptFullName)
	} else {
		session.reply(MsgLoginPromptOrgName)
	}
}

func (h *AuthHandler) handleName(session *UserSession, text string) {
	name := strings.TrimSpace(text)
	if name == "" {
		session.reply(MsgLoginEmptyName)
		return
	}
	session.authFlow.Name = name
	session.authFlow.State = AuthStateAwaitingEmail
	session.reply(MsgLoginPromptEmail)
}

func (h *AuthHandler) handleEmail(session *UserSession, text string) {
	addr, err := mail.ParseAddress(strings.TrimSpace(text))
	if err != nil || material.NameFromEmail(addr.Address) == "" {
		session.reply(MsgLoginInvalidEmail)
		return
	}

	h.finalizeAuth(session, addr.Address)
}

func (h *AuthHandler) finalizeAuth(session *UserSession, email string) {
	signup := session.authFlow.Signup
	user := material.User{
		ID:    uuid.New().String(),
		Name:  session.authFlow.userName(email),
		Email: email,
		Role:  session.authFlow.Role,
	}

	if h.users != nil {
		if err := h.users.SaveUser(session.userId, user); err != nil {
			session.authFlow.Reset()
			session.replyWithError(err)
			return
		}
	}

	session.user = &user
	session.authFlow.Reset()
	session.reply(MsgLoginSuccess, escapeMarkdown(user.Name), user.Role)
	log.Info().
		Int64("userId", session.userId).
		Str("role", string(user.Role)).
		Bool("signup", signup).
		Msg("user logged in successfully")
}

// HandleLogoutCommand forgets the stored profile.
// Called from session worker - no locking needed.
func (h *AuthHandler) HandleLogoutCommand(session *UserSession) {
	if !session.isLoggedIn() {
		session.reply(MsgLoginRequired)
		return
	}

	if h.users != nil {
		if err := h.users.DeleteUser(session.userId); err != nil {
			session.replyWithError(err)
			return
		}
	}

	session.reset()
	session.user = nil
	session.replyAndRemoveCustomKeyboard(MsgLoggedOut)
	log.Info().Int64("userId", session.userId).Msg("user logged out")
}
