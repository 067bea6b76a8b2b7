package bot

import (
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
)

// AuthState is the step of the login or signup conversation.
type AuthState int

const (
	AuthStateNone AuthState = iota
	AuthStateAwaitingRole
	AuthStateAwaitingName
	AuthStateAwaitingEmail
)

var authStateNames = [...]string{"None", "AwaitingRole", "AwaitingName", "AwaitingEmail"}

func (s AuthState) String() string {
	if s < 0 || int(s) >= len(authStateNames) {
		return "Unknown"
	}
	return authStateNames[s]
}

// AuthFlowTimeout abandons a login left unanswered this long.
const AuthFlowTimeout = 15 * time.Minute

// AuthFlow collects role, name and email before a profile is saved.
type AuthFlow struct {
	State           AuthState
	Signup          bool // Signup asks for a name; plain login derives it from the email
	Role            material.Role
	Name            string
	LastInteraction time.Time
}

func NewAuthFlow() *AuthFlow {
	return &AuthFlow{LastInteraction: time.Now()}
}

// begin restarts the flow at the role question.
func (f *AuthFlow) begin(signup bool) {
	*f = AuthFlow{
		State:           AuthStateAwaitingRole,
		Signup:          signup,
		LastInteraction: time.Now(),
	}
}

func (f *AuthFlow) IsActive() bool {
	return f.State != AuthStateNone
}

// IsTimedOut reports an active flow that went quiet for AuthFlowTimeout.
func (f *AuthFlow) IsTimedOut() bool {
	return f.IsActive() && time.Since(f.LastInteraction) > AuthFlowTimeout
}

func (f *AuthFlow) Reset() {
	*f = AuthFlow{LastInteraction: time.Now()}
}

func (f *AuthFlow) Touch() {
	f.LastInteraction = time.Now()
}

// userName picks the display name for the finished flow. Signups type their
// full or organisation name; logins fall back to the email's local part.
func (f *AuthFlow) userName(email string) string {
	if f.Signup {
		return f.Name
	}
	return material.NameFromEmail(email)
}
