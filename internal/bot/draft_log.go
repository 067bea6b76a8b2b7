package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Draft log event kinds.
const (
	draftEventState    = "state"
	draftEventInput    = "input"
	draftEventCallback = "callback"
	draftEventAnalysis = "analysis"
)

var (
	draftLogMu  sync.Mutex
	draftLogDir = "."
)

// InitDraftLog sets the directory for per-user draft logs. Each user gets
// draft_<id>.log with one JSON line per event of their latest draft.
func InitDraftLog(dir string) error {
	draftLogMu.Lock()
	defer draftLogMu.Unlock()
	if dir != "" {
		draftLogDir = dir
	}
	return os.MkdirAll(draftLogDir, 0755)
}

func draftLogPath(userID int64) string {
	draftLogMu.Lock()
	defer draftLogMu.Unlock()
	return filepath.Join(draftLogDir, fmt.Sprintf("draft_%d.log", userID))
}

// startDraftLog truncates the user's log for a new draft.
func startDraftLog(userID int64) {
	writeDraftEvent(userID, os.O_TRUNC, draftEventState, "draft started")
}

func logDraftEvent(userID int64, kind, format string, args ...any) {
	writeDraftEvent(userID, os.O_APPEND, kind, fmt.Sprintf(format, args...))
}

func writeDraftEvent(userID int64, flag int, kind, msg string) {
	f, err := os.OpenFile(draftLogPath(userID), os.O_CREATE|os.O_WRONLY|flag, 0644)
	if err != nil {
		log.Error().Err(err).Int64("userId", userID).Msg("failed to open draft log")
		return
	}
	defer f.Close()

	logger := zerolog.New(f).With().Timestamp().Logger()
	logger.Info().
		Str("event", kind).
		Msg(msg)
}
