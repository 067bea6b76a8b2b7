package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	// PollInterval is the time between polling cycles.
	PollInterval = 5 * time.Minute

	// StartDelay lets the bot finish starting before the first poll.
	StartDelay = 5 * time.Second

	// MaxNotificationsPerWatch caps the messages sent for one watch per cycle.
	MaxNotificationsPerWatch = 5

	// PruneInterval is how often to prune old seen items and cached analyses.
	PruneInterval = 24 * time.Hour

	// SeenItemsMaxAge is how long to keep seen items before pruning.
	SeenItemsMaxAge = 30 * 24 * time.Hour // 30 days

	// DefaultCacheTTL is how long cached analyses are kept.
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// BotSender abstracts the Telegram bot API for sending messages.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Store is the storage the watcher reads and prunes.
type Store interface {
	GetAllWatches() ([]storage.Watch, error)
	GetSeenItemIDs(watchID string) (map[string]bool, error)
	MarkItemsSeenBatch(watchID string, itemIDs []string) error
	PruneOldSeenItems(olderThan time.Duration) (int64, error)
	PruneAnalysisCache(olderThan time.Duration) (int64, error)
}

// Catalog is searched for new materials.
type Catalog interface {
	List(f marketplace.Filter) []material.Item
}

// Service is the background watcher that notifies users of new materials
// matching their alerts.
type Service struct {
	store    Store
	catalog  Catalog
	bot      BotSender
	cacheTTL time.Duration
}

// NewService creates a new watcher service. A cacheTTL of zero uses
// DefaultCacheTTL. With a nil bot only pruning runs.
func NewService(store Store, catalog Catalog, bot BotSender, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Service{
		store:    store,
		catalog:  catalog,
		bot:      bot,
		cacheTTL: cacheTTL,
	}
}

// Run starts the polling loop. It blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	log.Info().Dur("interval", PollInterval).Msg("starting watcher service")

	select {
	case <-ctx.Done():
		return nil
	case <-time.After(StartDelay):
	}
	s.poll(ctx)
	s.prune()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	pruneTicker := time.NewTicker(PruneInterval)
	defer pruneTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("watcher service stopped")
			return nil
		case <-ticker.C:
			s.poll(ctx)
		case <-pruneTicker.C:
			s.prune()
		}
	}
}

// poll executes one polling cycle for all watches.
func (s *Service) poll(ctx context.Context) {
	if s.bot == nil {
		return
	}
	log.Debug().Msg("starting poll cycle")

	watches, err := s.store.GetAllWatches()
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch watches")
		return
	}

	if len(watches) == 0 {
		log.Debug().Msg("no watches to poll")
		return
	}

	// Group watches by query so each query is matched once
	grouped := make(map[string][]storage.Watch)
	for _, w := range watches {
		grouped[w.Query] = append(grouped[w.Query], w)
	}

	log.Debug().Int("watches", len(watches)).Int("unique_queries", len(grouped)).Msg("processing watches")

	for query, watchGroup := range grouped {
		if ctx.Err() != nil {
			return
		}
		s.processQuery(query, watchGroup)
	}

	log.Debug().Msg("poll cycle complete")
}

// processQuery matches the catalog and notifies all watches for that query.
func (s *Service) processQuery(query string, watches []storage.Watch) {
	items := s.catalog.List(marketplace.Filter{Query: query})
	log.Debug().Str("query", query).Int("results", len(items)).Int("watchers", len(watches)).Msg("matched catalog")

	for _, watch := range watches {
		s.processWatchResults(watch, items)
	}
}

// processWatchResults checks matches against a watch's seen items and notifies.
func (s *Service) processWatchResults(watch storage.Watch, items []material.Item) {
	seenIDs, err := s.store.GetSeenItemIDs(watch.ID)
	if err != nil {
		log.Error().Err(err).Str("watchID", watch.ID).Msg("failed to get seen items")
		return
	}

	var newItems []material.Item
	for _, item := range items {
		if !seenIDs[item.ID] {
			newItems = append(newItems, item)
		}
	}

	if len(newItems) == 0 {
		return
	}

	log.Info().Str("watchID", watch.ID).Int("new", len(newItems)).Str("query", watch.Query).Msg("found new materials")

	// Mark all as seen before sending notifications
	newIDs := make([]string, 0, len(newItems))
	for _, item := range newItems {
		newIDs = append(newIDs, item.ID)
	}
	if err := s.store.MarkItemsSeenBatch(watch.ID, newIDs); err != nil {
		log.Error().Err(err).Str("watchID", watch.ID).Msg("failed to mark items as seen")
		// Continue anyway - we'll re-notify next time, which is better than silent failure
	}

	for i, item := range newItems {
		if i == MaxNotificationsPerWatch {
			log.Info().Str("watchID", watch.ID).Int("skipped", len(newItems)-i).Msg("notification limit reached")
			break
		}
		s.sendNotification(watch.UserID, watch.Query, item)
	}
}

// sendNotification sends a notification message for a new material.
func (s *Service) sendNotification(userID int64, query string, item material.Item) {
	msg := tgbotapi.NewMessage(userID, formatNotification(query, item))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("♻️ View", "browse:view:"+item.ID),
		),
	)

	_, err := s.bot.Send(msg)
	if err != nil {
		log.Error().
			Err(err).
			Int64("userID", userID).
			Str("itemID", item.ID).
			Msg("failed to send notification")
	} else {
		log.Debug().
			Int64("userID", userID).
			Str("itemID", item.ID).
			Msg("notification sent")
	}
}

func formatNotification(query string, item material.Item) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🔔 *New material:* \"%s\"\n\n", escapeMarkdown(query)))
	sb.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(item.Name)))
	sb.WriteString(fmt.Sprintf("🏷 %s\n", escapeMarkdown(string(item.Category))))
	if item.Quantity != "" {
		sb.WriteString(fmt.Sprintf("📦 %s\n", escapeMarkdown(item.Quantity)))
	}
	if item.Location.Address != "" {
		sb.WriteString(fmt.Sprintf("📍 %s\n", escapeMarkdown(item.Location.Address)))
	}

	return sb.String()
}

// prune removes old seen items and expired cached analyses.
func (s *Service) prune() {
	count, err := s.store.PruneOldSeenItems(SeenItemsMaxAge)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune old seen items")
	} else if count > 0 {
		log.Info().Int64("pruned", count).Msg("pruned old seen items")
	}

	count, err = s.store.PruneAnalysisCache(s.cacheTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune analysis cache")
	} else if count > 0 {
		log.Info().Int64("pruned", count).Msg("pruned analysis cache")
	}
}

// escapeMarkdown escapes special characters for Telegram Markdown V1.
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "*", "\\*")
	text = strings.ReplaceAll(text, "_", "\\_")
	text = strings.ReplaceAll(text, "`", "\\`")
	text = strings.ReplaceAll(text, "[", "\\[")
	return text
}
