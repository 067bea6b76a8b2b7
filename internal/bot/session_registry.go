package bot

import (
	"context"
	"sync"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/storage"
	"github.com/rs/zerolog/log"
)

const sessionInboxSize = 10

// UserLoader restores signed-in users when a session is first opened.
type UserLoader interface {
	GetUser(telegramID int64) (*storage.StoredUser, error)
}

// sessionRegistry owns one worker-backed session per Telegram user.
type sessionRegistry struct {
	sender  MessageSender
	handler MessageHandler
	users   UserLoader // may be nil

	mu       sync.Mutex
	sessions map[int64]*UserSession
}

func newSessionRegistry(sender MessageSender, handler MessageHandler, users UserLoader) *sessionRegistry {
	return &sessionRegistry{
		sender:   sender,
		handler:  handler,
		users:    users,
		sessions: make(map[int64]*UserSession),
	}
}

// get returns the user's session, starting its worker on first use.
func (r *sessionRegistry) get(userID int64) *UserSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[userID]; ok {
		return session
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &UserSession{
		userId:   userID,
		sender:   r.sender,
		authFlow: NewAuthFlow(),
		inbox:    make(chan SessionMessage, sessionInboxSize),
		ctx:      ctx,
		cancel:   cancel,
		user:     r.restoreUser(userID),
	}
	session.SetHandler(r.handler)
	session.StartWorker()

	r.sessions[userID] = session
	return session
}

func (r *sessionRegistry) restoreUser(userID int64) *material.User {
	if r.users == nil {
		return nil
	}

	stored, err := r.users.GetUser(userID)
	if err != nil {
		log.Warn().Err(err).Int64("userId", userID).Msg("failed to load stored user")
		return nil
	}
	if stored == nil {
		log.Info().Int64("userId", userID).Msg("session opened for guest")
		return nil
	}

	user := stored.User
	log.Info().Int64("userId", userID).Str("role", string(user.Role)).Msg("session opened for stored user")
	return &user
}

// stopAll stops every worker and forgets the sessions.
func (r *sessionRegistry) stopAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[int64]*UserSession)
	r.mu.Unlock()

	// Stop outside the lock, workers may still be finishing a message
	for _, session := range sessions {
		session.Stop()
	}
	log.Info().Int("count", len(sessions)).Msg("stopped all session workers")
}
