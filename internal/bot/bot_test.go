package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/listing"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testUserID  = int64(1)
	testAdminID = int64(42)
)

type botApiMock struct {
	mock.Mock
}

func (m *botApiMock) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *botApiMock) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *botApiMock) GetFileDirectURL(fileID string) (string, error) {
	args := m.Called(fileID)
	return args.Get(0).(string), args.Error(1)
}

// mockAdvisor implements llm.Advisor for testing
type mockAdvisor struct {
	mock.Mock
}

func (m *mockAdvisor) SuggestCategory(ctx context.Context, description string) llm.ClassificationResult {
	args := m.Called(ctx, description)
	return args.Get(0).(llm.ClassificationResult)
}

func (m *mockAdvisor) GetImpactEstimation(ctx context.Context, materialName, category string, weightKg float64) llm.ImpactEstimate {
	args := m.Called(ctx, materialName, category, weightKg)
	return args.Get(0).(llm.ImpactEstimate)
}

type keyValidatorMock struct {
	mock.Mock
}

func (m *keyValidatorMock) Validate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type testEnv struct {
	tg      *botApiMock
	bot     *Bot
	store   *storage.SQLiteStore
	catalog *marketplace.Catalog
	advisor *mockAdvisor
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, InitDraftLog(t.TempDir()))

	key, err := storage.DeriveKey("test passphrase")
	require.NoError(t, err)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "bot.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tg := new(botApiMock)
	tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 100}, nil).Maybe()
	tg.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil).Maybe()

	catalog := marketplace.NewSeededCatalog()
	advisor := new(mockAdvisor)
	bot := NewBot(tg, store, catalog, listing.NewDraftService(advisor, catalog), testAdminID)
	t.Cleanup(bot.Shutdown)

	return &testEnv{
		tg:      tg,
		bot:     bot,
		store:   store,
		catalog: catalog,
		advisor: advisor,
	}
}

// signIn stores a profile. Must be called before the user's first update.
func (e *testEnv) signIn(t *testing.T, userId int64, name string) {
	t.Helper()
	require.NoError(t, e.store.SaveUser(userId, material.User{
		ID:    fmt.Sprintf("user-%d", userId),
		Name:  name,
		Email: "jane@uni.edu",
		Role:  material.RoleStudent,
	}))
}

func (e *testEnv) send(userId int64, text string) {
	e.bot.handleUpdateSync(context.Background(), makeUpdateWithMessageText(userId, text))
}

func (e *testEnv) press(userId int64, data string) {
	e.bot.handleUpdateSync(context.Background(), makeUpdateWithCallback(userId, data))
}

func (e *testEnv) session(t *testing.T, userId int64) *UserSession {
	t.Helper()
	return e.bot.sessions.get(userId)
}

func makeUpdateWithMessageText(userId int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 10,
			From: &tgbotapi.User{
				ID: userId,
			},
			Chat: &tgbotapi.Chat{
				ID: userId,
			},
			Text: text,
		},
	}
}

func makeUpdateWithCallback(userId int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb",
			From: &tgbotapi.User{ID: userId},
			Data: data,
		},
	}
}

func makeMessage(userId int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(userId, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

func sentWithText(match func(string) bool) any {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && match(msg.Text)
	})
}

func assertSent(t *testing.T, tg *botApiMock, text string) {
	t.Helper()
	tg.AssertCalled(t, "Send", sentWithText(func(s string) bool { return s == text }))
}

func assertNotSent(t *testing.T, tg *botApiMock, text string) {
	t.Helper()
	tg.AssertNotCalled(t, "Send", sentWithText(func(s string) bool { return s == text }))
}

func assertSentContaining(t *testing.T, tg *botApiMock, parts ...string) {
	t.Helper()
	tg.AssertCalled(t, "Send", sentWithText(func(s string) bool {
		for _, p := range parts {
			if !strings.Contains(s, p) {
				return false
			}
		}
		return true
	}))
}

func TestMain(m *testing.M) {
	os.Setenv("GO_ENV", "test")
	os.Exit(m.Run())
}

func TestHandleUpdate_StartWithoutLogin(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/start")

	assertSent(t, e.tg, MsgWelcome)
}

func TestHandleUpdate_StartGreetsSignedInUser(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	e.send(testUserID, "/start")

	assertSent(t, e.tg, fmt.Sprintf(MsgStartPrompt, "Jane"))
}

func TestHandleUpdate_IgnoresUpdatesWithoutSender(t *testing.T) {
	e := setup(t)

	e.bot.handleUpdateSync(context.Background(), tgbotapi.Update{})
	e.bot.handleUpdateSync(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{Text: "/start"}})

	e.tg.AssertNotCalled(t, "Send", mock.Anything)
}

func TestLogin_DerivesNameFromEmail(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/login")
	assertSent(t, e.tg, MsgLoginSelectRole)
	assert.Equal(t, AuthStateAwaitingRole, e.session(t, testUserID).GetAuthFlowState())

	e.press(testUserID, "role:student")
	assertSent(t, e.tg, MsgLoginPromptEmail)

	e.send(testUserID, "jane.doe@uni.edu")
	assertSent(t, e.tg, fmt.Sprintf(MsgLoginSuccess, "jane.doe", "student"))

	session := e.session(t, testUserID)
	assert.True(t, session.IsLoggedIn())
	assert.Equal(t, AuthStateNone, session.GetAuthFlowState())

	stored, err := e.store.GetUser(testUserID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "jane.doe", stored.User.Name)
	assert.Equal(t, "jane.doe@uni.edu", stored.User.Email)
	assert.Equal(t, material.RoleStudent, stored.User.Role)
	assert.NotEmpty(t, stored.User.ID)
}

func TestSignup_AsksForOrganisationName(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/signup")
	e.press(testUserID, "role:industry")
	assertSent(t, e.tg, MsgLoginPromptOrgName)

	e.send(testUserID, "   ")
	assertSent(t, e.tg, MsgLoginEmptyName)

	e.send(testUserID, "Acme Fabrication")
	assertSent(t, e.tg, MsgLoginPromptEmail)

	e.send(testUserID, "ops@acme.example")
	assertSent(t, e.tg, fmt.Sprintf(MsgLoginSuccess, "Acme Fabrication", "industry"))

	stored, err := e.store.GetUser(testUserID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Acme Fabrication", stored.User.Name)
	assert.Equal(t, material.RoleIndustry, stored.User.Role)
}

func TestSignup_StudentAsksForFullName(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/signup")
	e.press(testUserID, "role:student")

	assertSent(t, e.tg, MsgLoginPromptFullName)
	assert.Equal(t, AuthStateAwaitingName, e.session(t, testUserID).GetAuthFlowState())
}

func TestLogin_TypedRole(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/login")
	e.send(testUserID, "Lab")

	assertSent(t, e.tg, MsgLoginPromptEmail)
	assert.Equal(t, AuthStateAwaitingEmail, e.session(t, testUserID).GetAuthFlowState())
}

func TestLogin_InvalidEmail(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/login")
	e.press(testUserID, "role:lab")
	e.send(testUserID, "not an email")

	assertSent(t, e.tg, MsgLoginInvalidEmail)
	assert.Equal(t, AuthStateAwaitingEmail, e.session(t, testUserID).GetAuthFlowState())
	assert.False(t, e.session(t, testUserID).IsLoggedIn())
}

func TestLogin_CommandsBlockedUntilCancelled(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/login")
	e.send(testUserID, "/browse")
	assertSent(t, e.tg, MsgLoginInProgress)

	e.send(testUserID, "/cancel")
	assertSent(t, e.tg, MsgLoginCancelled)
	assert.Equal(t, AuthStateNone, e.session(t, testUserID).GetAuthFlowState())
}

func TestLogin_Timeout(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/login")
	e.session(t, testUserID).authFlow.LastInteraction = time.Now().Add(-AuthFlowTimeout - time.Minute)

	e.send(testUserID, "student")

	assertSent(t, e.tg, MsgLoginTimeout)
	assert.Equal(t, AuthStateNone, e.session(t, testUserID).GetAuthFlowState())
}

func TestLogin_StaleRoleButton(t *testing.T) {
	e := setup(t)

	e.press(testUserID, "role:student")

	assertSent(t, e.tg, MsgLoginRoleExpired)
}

func TestLogin_AlreadySignedIn(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	e.send(testUserID, "/login")

	assertSent(t, e.tg, fmt.Sprintf(MsgLoginAlreadyLoggedIn, "Jane"))
	assert.Equal(t, AuthStateNone, e.session(t, testUserID).GetAuthFlowState())
}

func TestLogout(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	e.send(testUserID, "/logout")

	assertSent(t, e.tg, MsgLoggedOut)
	assert.False(t, e.session(t, testUserID).IsLoggedIn())
	stored, err := e.store.GetUser(testUserID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestAdd_RequiresLogin(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/add")

	assertSent(t, e.tg, MsgLoginRequired)
	assert.Equal(t, DraftStepNone, e.session(t, testUserID).GetDraftStep())
}

// fillDraft walks the /add wizard up to the summary.
func fillDraft(e *testEnv, userId int64, description string) {
	e.send(userId, "/add")
	e.send(userId, "Pine offcuts")
	e.send(userId, "1 bin")
	e.send(userId, "12,5 kg")
	e.send(userId, description)
	e.send(userId, "-")
}

func TestAddWizard_PublishWithoutAnalysis(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	e.send(testUserID, "/add")
	assertSent(t, e.tg, MsgDraftPromptName)

	e.send(testUserID, "Pine offcuts")
	assertSent(t, e.tg, MsgDraftPromptQuantity)

	e.send(testUserID, "-")
	assertSent(t, e.tg, MsgDraftPromptWeight)

	e.send(testUserID, "heavy")
	assertSent(t, e.tg, MsgDraftInvalidWeight)
	assert.Equal(t, DraftStepAwaitingWeight, e.session(t, testUserID).GetDraftStep())

	e.send(testUserID, "/publish")
	assertSent(t, e.tg, MsgDraftIncomplete)

	e.send(testUserID, "12,5 kg")
	assertSent(t, e.tg, MsgDraftPromptDescription)

	e.send(testUserID, "-")
	assertSent(t, e.tg, MsgDraftPromptAddress)

	e.send(testUserID, "Workshop B")
	assert.Equal(t, DraftStepReady, e.session(t, testUserID).GetDraftStep())
	assertSentContaining(t, e.tg, "*Pine offcuts*", "12.5 kg", "Workshop B")

	// No description means no analyze button
	e.tg.AssertNotCalled(t, "Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		if !ok {
			return false
		}
		markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		if !ok {
			return false
		}
		for _, row := range markup.InlineKeyboard {
			for _, btn := range row {
				if btn.CallbackData != nil && *btn.CallbackData == "draft:analyze" {
					return true
				}
			}
		}
		return false
	}))

	e.send(testUserID, "hello?")
	assertSent(t, e.tg, MsgDraftReadyHint)

	e.send(testUserID, "/publish")
	assertSent(t, e.tg, fmt.Sprintf(MsgDraftPublished, "Pine offcuts"))
	assert.Equal(t, DraftStepNone, e.session(t, testUserID).GetDraftStep())

	require.Equal(t, 5, e.catalog.Len())
	item := e.catalog.List(marketplace.Filter{})[0]
	assert.Equal(t, "Pine offcuts", item.Name)
	assert.Equal(t, 12.5, item.WeightKg)
	assert.Equal(t, "", item.Quantity)
	assert.Equal(t, "Workshop B", item.Location.Address)
	assert.Equal(t, "Jane", item.DonorName)
	assert.Equal(t, listing.JustPosted, item.PostedAt)

	e.advisor.AssertNotCalled(t, "SuggestCategory", mock.Anything, mock.Anything)
}

func TestAddWizard_SecondAddKeepsDraft(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	e.send(testUserID, "/add")
	e.send(testUserID, "Copper wire")
	e.send(testUserID, "/add")

	assertSent(t, e.tg, MsgDraftAlreadyActive)
	assert.Equal(t, DraftStepAwaitingQuantity, e.session(t, testUserID).GetDraftStep())
}

func TestPublish_NoDraft(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	e.send(testUserID, "/publish")

	assertSent(t, e.tg, MsgDraftNone)
}

func TestAnalysis_OneAtATime(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	release := make(chan struct{})
	e.advisor.On("SuggestCategory", mock.Anything, "Clean pine offcuts").
		Run(func(mock.Arguments) { <-release }).
		Return(llm.ClassificationResult{Category: string(material.CategoryTimber), Reason: "Sawn wood"}).
		Once()
	e.advisor.On("GetImpactEstimation", mock.Anything, "Pine offcuts", string(material.CategoryTimber), 12.5).
		Return(llm.ImpactEstimate{CO2Saved: 18.75, ImpactStatement: "Nice work."}).
		Once()

	fillDraft(e, testUserID, "Clean pine offcuts")
	session := e.session(t, testUserID)

	e.press(testUserID, "draft:analyze")
	assertSent(t, e.tg, MsgAnalysisStarted)
	assert.True(t, session.IsAnalyzing())

	// A second press and a publish wait for the running analysis
	e.press(testUserID, "draft:analyze")
	assertSent(t, e.tg, MsgAnalysisInProgress)
	e.send(testUserID, "/publish")
	assert.Equal(t, 4, e.catalog.Len())

	close(release)
	require.Eventually(t, func() bool { return !session.IsAnalyzing() }, 2*time.Second, 10*time.Millisecond)

	assertSentContaining(t, e.tg, "Timber Offcuts", "Sawn wood", "18.7 kg", "Nice work.")

	e.send(testUserID, "/publish")
	assertSent(t, e.tg, fmt.Sprintf(MsgDraftPublished, "Pine offcuts"))

	item := e.catalog.List(marketplace.Filter{})[0]
	assert.Equal(t, material.CategoryTimber, item.Category)
	assert.Equal(t, listing.DefaultAddress, item.Location.Address)
	assert.Equal(t, "1 bin", item.Quantity)

	e.advisor.AssertNumberOfCalls(t, "SuggestCategory", 1)
	e.advisor.AssertExpectations(t)
}

func TestAnalysis_DroppedAfterCancel(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	release := make(chan struct{})
	e.advisor.On("SuggestCategory", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(llm.ClassificationResult{Category: string(material.CategoryTimber), Reason: "Wood"})
	e.advisor.On("GetImpactEstimation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(llm.ImpactEstimate{CO2Saved: 1, ImpactStatement: "Late result."}).
		Maybe()

	fillDraft(e, testUserID, "Clean pine offcuts")
	session := e.session(t, testUserID)

	e.press(testUserID, "draft:analyze")
	e.send(testUserID, "/cancel")
	assertSent(t, e.tg, MsgDraftCancelled)

	close(release)
	require.Eventually(t, func() bool { return !session.IsAnalyzing() }, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, DraftStepNone, session.GetDraftStep())
	assertNotSent(t, e.tg, MsgDraftReadyHint)
	e.tg.AssertNotCalled(t, "Send", sentWithText(func(s string) bool { return strings.Contains(s, "Late result.") }))
	assert.Equal(t, 4, e.catalog.Len())
}

func TestAnalysis_NeedsDescription(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	fillDraft(e, testUserID, "-")
	e.press(testUserID, "draft:analyze")

	assertSent(t, e.tg, MsgAnalysisNeedsDesc)
	assert.False(t, e.session(t, testUserID).IsAnalyzing())
}

func TestDraftCallback_Expired(t *testing.T) {
	e := setup(t)

	e.press(testUserID, "draft:publish")

	assertSent(t, e.tg, MsgDraftExpired)
}

func TestCancel_WithoutDraft(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/cancel")

	e.tg.AssertCalled(t, "Send", tgbotapi.MessageConfig{
		BaseChat: tgbotapi.BaseChat{
			ChatID:      testUserID,
			ReplyMarkup: tgbotapi.NewRemoveKeyboard(false),
		},
		Text:      MsgOk,
		ParseMode: tgbotapi.ModeMarkdown,
	})
}

func TestBrowse_FilterViewAndClaim(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	e.send(testUserID, "/browse")
	assertSentContaining(t, e.tg, "Page 1/1, 4 materials")

	e.press(testUserID, "browse:cat:2")
	e.tg.AssertCalled(t, "Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		edit, ok := c.(tgbotapi.EditMessageTextConfig)
		return ok && strings.Contains(edit.Text, "in Timber Offcuts") && strings.Contains(edit.Text, "1 material\n")
	}))

	e.press(testUserID, "browse:view:3")
	e.tg.AssertCalled(t, "Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		edit, ok := c.(tgbotapi.EditMessageTextConfig)
		return ok && strings.HasPrefix(edit.Text, "*Pine Timber Offcuts*")
	}))

	e.press(testUserID, "claim:3")
	assertSent(t, e.tg, fmt.Sprintf(MsgItemClaimed, "Pine Timber Offcuts", "Workshop Manager", "Industrial Arts Workshop"))
	assert.Equal(t, 3, e.catalog.Len())

	e.press(testUserID, "claim:3")
	assertSent(t, e.tg, MsgItemNotFound)

	e.send(testUserID, "/stats")
	assertSentContaining(t, e.tg,
		"Diverted from landfill: *1,329 kg*",
		"Carbon saved: *3,277.5 kg*",
		"Items redistributed: *1*",
		"Active users: *483*",
		"• Timber Offcuts: 345 kg",
	)
}

func TestBrowse_SearchQuery(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/browse glass")

	assertSentContaining(t, e.tg, `matching "glass"`, "Page 1/1, 1 material\n")
}

func TestClaim_RequiresLogin(t *testing.T) {
	e := setup(t)

	e.press(testUserID, "claim:1")

	assertSent(t, e.tg, MsgLoginRequired)
	assert.Equal(t, 4, e.catalog.Len())
}

func TestFormatStats(t *testing.T) {
	stats := material.ImpactStats{
		TotalDivertedKg:    1284,
		CarbonSavedKg:      3210,
		ItemsRedistributed: 0,
		ActiveUsers:        482,
		DivertedByCategory: map[material.Category]float64{
			material.CategoryTimber: 300,
			material.CategoryMetal:  400,
			material.CategoryOther:  2.5,
		},
	}

	want := "🌍 *Campus impact*\n\n" +
		"Diverted from landfill: *1,284 kg*\n" +
		"Carbon saved: *3,210 kg*\n" +
		"Items redistributed: *0*\n" +
		"Active users: *482*\n" +
		"\n" +
		"• Metal Scraps: 400 kg\n" +
		"• Timber Offcuts: 300 kg\n" +
		"• Other: 2.5 kg\n"
	assert.Equal(t, want, formatStats(stats))
}

func TestSetKey_IgnoredForNonAdmin(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/setkey secret")

	e.tg.AssertNotCalled(t, "Send", mock.Anything)
	key, err := e.store.GetAPIKey()
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestSetKey_Admin(t *testing.T) {
	e := setup(t)
	validator := new(keyValidatorMock)
	validator.On("Validate", mock.Anything, "bad-key").Return(errors.New("API key not valid")).Once()
	validator.On("Validate", mock.Anything, "good-key").Return(nil).Once()
	e.bot.SetKeyValidator(validator)

	e.send(testAdminID, "/setkey")
	assertSent(t, e.tg, MsgSetKeyUsage)

	e.send(testAdminID, "/setkey bad-key")
	assertSent(t, e.tg, fmt.Sprintf(MsgSetKeyInvalid, "API key not valid"))
	key, err := e.store.GetAPIKey()
	require.NoError(t, err)
	assert.Empty(t, key)

	e.send(testAdminID, "/setkey good-key")
	assertSent(t, e.tg, MsgSetKeySaved)
	key, err = e.store.GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "good-key", key)

	// The message holding the key is removed from the chat
	e.tg.AssertCalled(t, "Request", tgbotapi.NewDeleteMessage(testAdminID, 10))
	validator.AssertExpectations(t)
}

func TestWatch_CreateListDelete(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	e.send(testUserID, "/watch")
	assertSent(t, e.tg, MsgWatchQueryMissing)

	e.send(testUserID, "/watch timber")
	assertSent(t, e.tg, fmt.Sprintf(MsgWatchCreated, "timber"))

	watches, err := e.store.GetWatchesByUser(testUserID)
	require.NoError(t, err)
	require.Len(t, watches, 1)
	assert.Equal(t, "timber", watches[0].Query)

	// Materials already listed are not notified later
	seen, err := e.store.GetSeenItemIDs(watches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"3": true}, seen)

	e.send(testUserID, "/watch timber")
	assertSent(t, e.tg, fmt.Sprintf(MsgWatchAlreadyExists, "timber"))

	e.send(testUserID, "/watches")
	assertSent(t, e.tg, formatWatches(watches))

	e.press(testUserID, "watch:delete:"+watches[0].ID)
	assertSent(t, e.tg, MsgWatchDeleted+"\n\n"+MsgNoWatches)

	count, err := e.store.CountWatchesByUser(testUserID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWatch_RequiresLogin(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/watch copper")

	assertSent(t, e.tg, MsgLoginRequired)
}

func TestWatch_Limit(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")
	for i := 0; i < MaxWatchesPerUser; i++ {
		_, err := e.store.CreateWatch(testUserID, fmt.Sprintf("query %d", i))
		require.NoError(t, err)
	}

	e.send(testUserID, "/watch one more")

	assertSent(t, e.tg, fmt.Sprintf(MsgWatchLimitReached, MaxWatchesPerUser))
}

func TestSearch_OffersAlert(t *testing.T) {
	e := setup(t)
	e.signIn(t, testUserID, "Jane")

	e.send(testUserID, "/search pine")
	assertSentContaining(t, e.tg, `Materials matching "pine" (1 match)`, "1. Pine Timber Offcuts, 45 kg (Industrial Arts Workshop)")

	e.press(testUserID, "watch:create")
	assertSent(t, e.tg, fmt.Sprintf(MsgWatchCreated, "pine"))

	exists, err := e.store.WatchExistsForQuery(testUserID, "pine")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSearch_NoResults(t *testing.T) {
	e := setup(t)

	e.send(testUserID, "/search unobtainium")

	assertSentContaining(t, e.tg, `No materials found for "unobtainium"`)
}

func TestAdminKeyReselector_Cooldown(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil)
	r := NewAdminKeyReselector(tg, testAdminID)

	r.RequestNewKey(context.Background(), errors.New("API_KEY_INVALID"))
	r.RequestNewKey(context.Background(), errors.New("API_KEY_INVALID"))
	tg.AssertNumberOfCalls(t, "Send", 1)
	tg.AssertCalled(t, "Send", makeMessage(testAdminID, fmt.Sprintf(MsgKeyReselectRequired, "API\\_KEY\\_INVALID")))

	// After the cooldown the admin is asked again
	r.mu.Lock()
	r.lastSent = time.Now().Add(-KeyReselectCooldown - time.Second)
	r.mu.Unlock()
	r.RequestNewKey(context.Background(), nil)
	tg.AssertNumberOfCalls(t, "Send", 2)
}
