package archive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentdesk/engine"
	"github.com/hupe1980/agentdesk/logging"
)

// Record is one archived turn.
type Record struct {
	ID          string    `json:"id"`
	Identity    string    `json:"identity"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Agent       string    `json:"agent"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store persists and lists archived turns.
type Store interface {
	// Append stores r. Missing ID and Timestamp are filled in.
	Append(ctx context.Context, r Record) error

	// History returns the most recent records for identity, newest first.
	// A non-positive limit returns all records.
	History(ctx context.Context, identity string, limit int) ([]Record, error)
}

// FromTurn converts a committed turn into a record.
func FromTurn(turn *engine.TurnRecord) Record {
	return Record{
		Identity:    turn.Identity,
		UserMessage: turn.UserMessage,
		BotResponse: turn.Response,
		Agent:       turn.Agent,
		Timestamp:   turn.Timestamp,
	}
}

func normalize(r Record) Record {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	r.Timestamp = r.Timestamp.UTC()
	return r
}

// NewCallback returns an on_turn_committed callback appending every committed
// turn to store. Archive failures are logged and do not affect the reply.
func NewCallback(store Store, logger logging.Logger) engine.Callback {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return engine.NewFunctionCallback(engine.CallbackOnTurnCommitted, func(ctx context.Context, cc *engine.CallbackContext) error {
		if cc.Turn == nil {
			return nil
		}

		if err := store.Append(ctx, FromTurn(cc.Turn)); err != nil {
			logger.Error("archive.append.failed", "identity", cc.Identity, "error", err.Error())
		}

		return nil
	})
}
