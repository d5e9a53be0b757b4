package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Transcript is the append-only conversation log. The orchestrator never
// reads it; the hosting layer writes one row per inbound and outbound
// message for audit.
type Transcript struct {
	db  *bun.DB
	now func() time.Time
}

func NewTranscript(db *bun.DB) (*Transcript, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}
	return &Transcript{db: db, now: time.Now}, nil
}

func (t *Transcript) Append(ctx context.Context, userID, message, direction string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("user id is empty")
	}
	row := &Conversation{
		ConvID:    uuid.New(),
		UserID:    strings.TrimSpace(userID),
		Timestamp: t.now().UTC(),
		Message:   message,
		Direction: direction,
	}
	if _, err := t.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("append conversation: %w", err)
	}
	return nil
}
