package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgOk            = `Ok!`
	MsgUnexpectedErr = `Unexpected error: %s`
	MsgStartPrompt   = "Hi %s! Use /add to list a material, /browse to find one or /stats to see the campus impact."
	MsgWelcome       = "Welcome to *UpCycleConnect*, the campus marketplace for surplus materials.\n\nUse /login to sign in or /signup to create a profile."
)

// =============================================================================
// Login flow messages
// =============================================================================

const (
	MsgLoginSelectRole      = "What describes you best?"
	MsgLoginPromptFullName  = "What is your full name?"
	MsgLoginPromptOrgName   = "What is the name of your organisation?"
	MsgLoginPromptEmail     = "What is your email address?"
	MsgLoginInvalidEmail    = "That does not look like an email address. Try again or cancel with /cancel"
	MsgLoginEmptyName       = "The name cannot be empty."
	MsgLoginSuccess         = "Signed in as *%s* (%s)."
	MsgLoginTimeout         = "Login timed out. Start again with /login"
	MsgLoginAlreadyLoggedIn = "You are already signed in as *%s*. Use /logout first."
	MsgLoginRequired        = "You need to sign in first. Use /login or /signup"
	MsgLoginCancelled       = "Login cancelled."
	MsgLoginInProgress      = "Login in progress. Answer the question above or cancel with /cancel"
	MsgLoginRoleExpired     = "This login form has expired. Start again with /login"
	MsgLoggedOut            = "Signed out."
)

// =============================================================================
// Draft wizard messages
// =============================================================================

const (
	MsgDraftPromptName        = "What material are you listing? (e.g. _Aluminum Sheets_)"
	MsgDraftPromptQuantity    = "How much is there? (e.g. _5 Rolls_, or - to skip)"
	MsgDraftPromptWeight      = "Roughly how many kilograms? (e.g. 12.5)"
	MsgDraftPromptDescription = "Describe the material. The AI uses the description to pick a category."
	MsgDraftPromptAddress     = "Where can it be picked up? (or - for Campus Central)"
	MsgDraftInvalidWeight     = "Send the weight as a number of kilograms, e.g. 12 or 12.5"
	MsgDraftEmptyName         = "The name cannot be empty."
	MsgDraftAlreadyActive     = "You already have a draft. Finish it with /publish or discard it with /cancel"
	MsgDraftNone              = "No draft to publish. Start one with /add"
	MsgDraftIncomplete        = "The draft is not finished yet. Answer the question above first."
	MsgDraftReadyHint         = "The draft is ready. Use the buttons above, /publish or /cancel"
	MsgDraftCancelled         = "Draft discarded."
	MsgDraftPublished         = "✅ *%s* is now listed on the marketplace."
	MsgDraftExpired           = "This draft is no longer active."
)

// =============================================================================
// AI analysis messages
// =============================================================================

const (
	MsgAnalysisStarted      = "🤖 Analyzing your material..."
	MsgAnalysisInProgress   = "Analysis is already running, hang on."
	MsgAnalysisNeedsDesc    = "Add a description to use the AI analysis."
	MsgAnalysisCategoryLine = "*Category:* %s"
	MsgAnalysisReasonLine   = "_%s_"
	MsgAnalysisImpactLine   = "🌱 *CO₂ saved:* %s kg"
	MsgAnalysisStatement    = "%s"
)

// =============================================================================
// Browse messages
// =============================================================================

const (
	MsgBrowseHeader      = "♻️ *Available materials*%s\nPage %d/%d, %s\n"
	MsgBrowseFilterQuery = " matching \"%s\""
	MsgBrowseFilterCat   = " in %s"
	MsgBrowseEmpty       = "No materials match. Try another search or category."
	MsgItemNotFound      = "That material is no longer available."
	MsgItemClaimed       = "🎉 You claimed *%s*. Contact %s to arrange pickup at %s."
	MsgStats             = "🌍 *Campus impact*\n\nDiverted from landfill: *%s kg*\nCarbon saved: *%s kg*\nItems redistributed: *%d*\nActive users: *%d*\n"
	MsgStatsCategoryLine = "• %s: %s kg\n"
)

// =============================================================================
// Search and watch messages
// =============================================================================

const (
	MsgSearchQueryMissing  = "Give a search term, e.g. `/search copper wire`"
	MsgSearchNoResults     = "No materials found for \"%s\".\n\nYou can still get an alert when one is listed."
	MsgSearchResults       = "Materials matching \"%s\" (%s):\n\n"
	MsgWatchQueryMissing   = "Give a search term, e.g. `/watch copper wire`"
	MsgWatchCreated        = "🔔 You will be notified when new materials match \"%s\"."
	MsgWatchAlreadyExists  = "You already have an alert for \"%s\"."
	MsgWatchLimitReached   = "You can have at most %d alerts. Remove one with /watches first."
	MsgNoWatches           = "You have no alerts. Create one with /watch"
	MsgWatchesHeader       = "*Your alerts* (%d):\n\n"
	MsgWatchItem           = "%d. %s\n"
	MsgWatchDeleted        = "Alert removed."
	MsgWatchNotFound       = "Alert not found."
	MsgSearchQueryExpired  = "This search has expired. Search again with /search"
	MsgWatchNotificationHd = "🔔 *New material:* \"%s\"\n\n"
)

// =============================================================================
// Admin messages
// =============================================================================

const (
	MsgSetKeyUsage         = "Usage: `/setkey <gemini api key>`"
	MsgSetKeyInvalid       = "The API key was rejected: %s"
	MsgSetKeySaved         = "✅ API key saved. The next analysis will use it."
	MsgSetKeyNotAvailable  = "Key storage is not available."
	MsgKeyReselectRequired = "⚠️ The Gemini API key was rejected (%s).\n\nAI analysis is using fallback values until a new key is set with `/setkey <key>`."
)

// =============================================================================
// Buttons
// =============================================================================

const (
	BtnAnalyze     = "🤖 Analyze with AI"
	BtnReanalyze   = "🔁 Analyze again"
	BtnPublish     = "✅ Publish"
	BtnCancel      = "✖️ Cancel"
	BtnClaim       = "🤝 Claim"
	BtnBack        = "⬅️ Back"
	BtnPrev        = "◀️"
	BtnNext        = "▶️"
	BtnClose       = "Close"
	BtnAll         = "All"
	BtnCreateWatch = "🔔 Alert me"
	BtnDeleteWatch = "❌"
	BtnView        = "View"
	BtnStudent     = "🎓 Student"
	BtnIndustry    = "🏭 Industry"
	BtnLab         = "🔬 Lab"
)
