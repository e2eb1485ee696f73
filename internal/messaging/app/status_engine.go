package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/repository"
)

// StatusEngine enforces the monotonically non-decreasing status history per
// message. Acknowledgments arrive duplicated and out of order over the wire;
// the engine guarantees the persisted history always reflects the
// highest-fidelity state observed and never regresses.
type StatusEngine struct {
	statusRepo repository.StatusEventRepository
	db         repository.Querier
	logger     *slog.Logger

	// Appends for the same message id must be serialized: two racing
	// read-then-append callbacks could both observe a stale maximum.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStatusEngine creates a new StatusEngine.
func NewStatusEngine(statusRepo repository.StatusEventRepository, db repository.Querier, logger *slog.Logger) *StatusEngine {
	return &StatusEngine{
		statusRepo: statusRepo,
		db:         db,
		logger:     logger.With("service", "status_engine"),
		locks:      make(map[string]*sync.Mutex),
	}
}

func (e *StatusEngine) lockFor(messageID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[messageID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[messageID] = l
	}
	return l
}

// Apply records a proposed status for a message. The terminal failure marker
// is always appended; any other status is appended only when its level
// exceeds the current maximum, otherwise the call is a silent no-op. Apply is
// idempotent under duplicate or out-of-order acknowledgments.
func (e *StatusEngine) Apply(ctx context.Context, messageID string, status domain.Status) error {
	l := e.lockFor(messageID)
	l.Lock()
	defer l.Unlock()

	return e.applyLocked(ctx, e.db, messageID, status)
}

// ApplyTx is Apply running on a caller-owned querier (typically a
// transaction). The caller must already hold no competing acknowledgment path
// for the message, as is the case for the initial receipt row.
func (e *StatusEngine) ApplyTx(ctx context.Context, q repository.Querier, messageID string, status domain.Status) error {
	l := e.lockFor(messageID)
	l.Lock()
	defer l.Unlock()

	return e.applyLocked(ctx, q, messageID, status)
}

func (e *StatusEngine) applyLocked(ctx context.Context, q repository.Querier, messageID string, status domain.Status) error {
	if !status.Terminal() {
		current, found, err := e.statusRepo.MaxLevel(ctx, q, messageID)
		if err != nil {
			return fmt.Errorf("failed to read current max level: %w", err)
		}
		if found && status.Level <= current {
			e.logger.DebugContext(ctx, "Status at or below current level, skipping",
				"message_id", messageID, "status", status.Name, "level", status.Level, "current_max", current)
			return nil
		}
	}

	ev := &domain.StatusEvent{
		MessageID:      messageID,
		StatusName:     status.Name,
		HierarchyLevel: status.Level,
	}
	if err := e.statusRepo.Append(ctx, q, ev); err != nil {
		return fmt.Errorf("failed to append status event: %w", err)
	}
	statusEventsAppliedCounter.WithLabelValues(status.Name).Inc()
	e.logger.InfoContext(ctx, "Status event recorded",
		"message_id", messageID, "status", status.Name, "level", status.Level)
	return nil
}

// GetHistory returns the full status history of a message ordered by
// creation time ascending, for auditing.
func (e *StatusEngine) GetHistory(ctx context.Context, messageID string) ([]domain.StatusEvent, error) {
	return e.statusRepo.History(ctx, e.db, messageID)
}
