package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/config"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const validationTimeout = 10 * time.Second

var (
	wizardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")).MarginBottom(1)
	wizardOkStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	wizardPathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// setupAnswers holds what the wizard asks for, prefilled from the environment.
type setupAnswers struct {
	GeminiKey string
	BotToken  string
	AdminID   string
}

func answersFromEnv() *setupAnswers {
	return &setupAnswers{
		GeminiKey: os.Getenv(config.EnvGeminiAPIKey),
		BotToken:  os.Getenv(config.EnvBotToken),
		AdminID:   os.Getenv(config.EnvAdminID),
	}
}

func (a *setupAnswers) form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API Key").
				Description("Create one at https://aistudio.google.com/apikey").
				Value(&a.GeminiKey).
				Validate(validateGeminiKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram Bot Token (optional)").
				Description("From @BotFather with /newbot. Leave empty to serve only the HTTP API.").
				Value(&a.BotToken).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return validateTelegramToken(s)
				}),
			huh.NewInput().
				Title("Admin Telegram User ID").
				Description("Receives key alerts and may use /setkey. @userinfobot tells you your ID.").
				Value(&a.AdminID).
				Validate(func(s string) error {
					return validateAdminID(s, a.BotToken != "")
				}),
		),
	).WithTheme(huh.ThemeBase16())
}

// envValues returns everything config.env should contain after the wizard.
// Settings the wizard does not ask about are carried over from the
// environment. An existing secret is kept so stored keys stay readable.
func (a *setupAnswers) envValues() map[string]string {
	values := map[string]string{
		config.EnvGeminiAPIKey: a.GeminiKey,
		config.EnvBotToken:     a.BotToken,
		config.EnvAdminID:      a.AdminID,
		config.EnvSecret:       os.Getenv(config.EnvSecret),
	}
	if values[config.EnvSecret] == "" {
		values[config.EnvSecret] = rand.Text()
	}
	for _, name := range []string{config.EnvDBPath, config.EnvHTTPAddr, config.EnvGeminiModel, config.EnvCacheTTL} {
		values[name] = os.Getenv(name)
	}
	return values
}

// runSetupWizard asks for credentials, writes config.env and exports the
// values into this process. It reports whether startup can continue.
func runSetupWizard() bool {
	fmt.Println()
	fmt.Println(wizardTitleStyle.Render("♻️ UpCycle Connect setup"))

	answers := answersFromEnv()
	if err := answers.form().Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
		} else {
			fmt.Printf("\nSetup failed: %v\n", err)
		}
		return false
	}

	values := answers.envValues()
	path, err := config.WriteEnvFile(values)
	if err != nil {
		fmt.Printf("\nCould not save configuration: %v\n", err)
		waitOnWindows()
		return false
	}
	for name, v := range values {
		if v != "" {
			os.Setenv(name, v)
		}
	}

	fmt.Println()
	fmt.Println(wizardOkStyle.Render("✓ Saved"))
	fmt.Println(wizardPathStyle.Render("  " + path))
	fmt.Println()
	return true
}

func validateGeminiKey(key string) error {
	if key == "" {
		return errors.New("API key is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), validationTimeout)
	defer cancel()
	return llm.NewKeyValidator("").Validate(ctx, key)
}

func validateAdminID(s string, botEnabled bool) error {
	if s == "" {
		if botEnabled {
			return errors.New("user ID is required when the bot is enabled")
		}
		return nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err != nil || id <= 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

// validateTelegramToken calls getMe with the token.
func validateTelegramToken(token string) error {
	client := &http.Client{Timeout: validationTimeout}
	_, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err == nil {
		return nil
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Message != "" {
		return errors.New(tgErr.Message)
	}
	return errors.New("token rejected by Telegram or connection failed")
}

// waitOnWindows keeps a double-clicked console open long enough to read the error.
func waitOnWindows() {
	if runtime.GOOS != "windows" {
		return
	}
	fmt.Print("\nPress Enter to exit...")
	fmt.Scanln()
}

func fatalWithWait(format string, args ...any) {
	log.Error().Msgf(format, args...)
	waitOnWindows()
	os.Exit(1)
}
