package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/bot"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/config"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/httpapi"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/listing"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/storage"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/watcher"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const logFileName = "upcycle-connect.log"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		fatalWithWait("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "upcycle",
		Short:         "Campus marketplace for reusable materials with AI classification and impact estimates",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the Telegram bot and HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "setup",
			Short: "Interactively collect credentials and write config.env",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				config.LoadEnvFile()
				if !isInteractiveTerminal() {
					return errors.New("setup needs an interactive terminal")
				}
				if !runSetupWizard() {
					return errors.New("setup did not complete")
				}
				return nil
			},
		},
		newClassifyCmd(),
		newEstimateCmd(),
	)

	return root
}

// loadConfig loads config.env and the environment, running the setup
// wizard first when required values are missing on a terminal.
func loadConfig() (*config.Config, error) {
	config.LoadEnvFile()

	if missing := config.Missing(); len(missing) > 0 {
		if !isInteractiveTerminal() {
			// Non-interactive (systemd, k8s, etc.) - fail with clear error
			return nil, fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
		}
		if !runSetupWizard() {
			return nil, errors.New("setup did not complete")
		}
	}

	return config.Load()
}

// setupFileLogging adds a log file next to the console output. JOURNAL_STREAM
// is set by systemd, which captures stderr on its own.
func setupFileLogging() (io.Closer, error) {
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		return io.NopCloser(nil), nil
	}

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))

	log.Info().Str("logFile", logFileName).Msg("logging to file")
	return logFile, nil
}

func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	encryptionKey, err := storage.DeriveKey(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath, encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")
	return store, nil
}

// newAdvisor wires the model client to the stored or environment key and
// the analysis cache.
func newAdvisor(cfg *config.Config, store *storage.SQLiteStore, reselector llm.KeyReselector) *llm.Service {
	factory := llm.NewGeminiFactory(
		storage.NewKeySource(store, config.EnvGeminiAPIKey),
		llm.WithModel(cfg.GeminiModel),
	)
	log.Info().Str("model", factory.ModelName()).Msg("gemini client configured")

	return llm.NewService(factory,
		llm.WithCache(store),
		llm.WithKeyReselector(reselector),
	)
}

// logKeyReselector is used when no admin chat is available.
var logKeyReselector = llm.KeyReselectorFunc(func(ctx context.Context, cause error) {
	log.Error().Err(cause).Msgf("gemini api key rejected, set a new %s", config.EnvGeminiAPIKey)
})

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logFile, err := setupFileLogging()
	if err != nil {
		return err
	}
	defer logFile.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var tg *tgbotapi.BotAPI
	var reselector llm.KeyReselector = logKeyReselector
	if cfg.BotEnabled() {
		tg, err = tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		tg.Debug = false
		log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")
		reselector = bot.NewAdminKeyReselector(tg, cfg.AdminID)
	} else {
		log.Info().Msg("telegram bot disabled, serving http api only")
	}

	catalog := marketplace.NewSeededCatalog()
	advisor := newAdvisor(cfg, store, reselector)
	drafts := listing.NewDraftService(advisor, catalog)

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		return httpapi.NewServer(catalog, advisor, drafts, store).ListenAndServe(ctx, cfg.HTTPAddr)
	})

	// Material alerts need the bot; cache pruning always runs
	var sender watcher.BotSender
	if tg != nil {
		sender = tg

		// Register bot commands for Telegram's command menu
		bot.RegisterCommands(tg)

		// Per-user draft logs go to the current directory
		if err := bot.InitDraftLog("."); err != nil {
			log.Warn().Err(err).Msg("failed to initialize draft log")
		}

		g.Go(func() error {
			return runBot(ctx, tg, store, catalog, drafts, cfg.AdminID)
		})
	}

	watcherService := watcher.NewService(store, catalog, sender, cfg.CacheTTL)
	g.Go(func() error {
		return watcherService.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		return err
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func runBot(ctx context.Context, tg *tgbotapi.BotAPI, store storage.Store, catalog *marketplace.Catalog, drafts *listing.DraftService, adminID int64) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	b := bot.NewBot(tg, store, catalog, drafts, adminID)
	b.SetKeyValidator(llm.NewKeyValidator(""))
	defer b.Shutdown()

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			log.Info().Msg("waiting for active handlers to finish")
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}
