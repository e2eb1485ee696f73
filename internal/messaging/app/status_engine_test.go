package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/repository"
)

// memStatusRepo is an in-memory StatusEventRepository for engine tests.
type memStatusRepo struct {
	mu     sync.Mutex
	events []domain.StatusEvent
	seq    int
}

func (r *memStatusRepo) Append(ctx context.Context, q repository.Querier, ev *domain.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	r.seq++
	r.events = append(r.events, *ev)
	return nil
}

func (r *memStatusRepo) MaxLevel(ctx context.Context, q repository.Querier, messageID string) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max, found := 0, false
	for _, ev := range r.events {
		if ev.MessageID != messageID || ev.HierarchyLevel >= domain.FailedLevel {
			continue
		}
		if !found || ev.HierarchyLevel > max {
			max = ev.HierarchyLevel
			found = true
		}
	}
	return max, found, nil
}

func (r *memStatusRepo) History(ctx context.Context, q repository.Querier, messageID string) ([]domain.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StatusEvent
	for _, ev := range r.events {
		if ev.MessageID == messageID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func newTestEngine() (*StatusEngine, *memStatusRepo) {
	repo := &memStatusRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStatusEngine(repo, nil, logger), repo
}

func statusNames(events []domain.StatusEvent) []string {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.StatusName
	}
	return names
}

func TestStatusEngine_AppendsIncreasingLevels(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusMessageReceipt))
	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusSent))
	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusDelivered))

	history, err := engine.GetHistory(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"message_receipt", "sent", "delivered"}, statusNames(history))
}

func TestStatusEngine_EqualOrLowerLevelIsNoOp(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusDelivered))
	// Late, out-of-order acknowledgments must not regress or duplicate history.
	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusSent))
	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusDelivered))

	history, err := engine.GetHistory(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"delivered"}, statusNames(history))
}

func TestStatusEngine_FailedIsAlwaysRecorded(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusSent))
	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusFailed))
	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusFailed))

	history, err := engine.GetHistory(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sent", "failed", "failed"}, statusNames(history))
}

func TestStatusEngine_FailedDoesNotBlockLaterProgress(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusSent))
	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusFailed))
	// An acknowledgment can still arrive after a local failure was suspected.
	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusDelivered))

	history, err := engine.GetHistory(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sent", "failed", "delivered"}, statusNames(history))
}

func TestStatusEngine_IndependentMessages(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	require.NoError(t, engine.Apply(ctx, "m1", domain.StatusDelivered))
	require.NoError(t, engine.Apply(ctx, "m2", domain.StatusSent))

	history, err := engine.GetHistory(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, []string{"sent"}, statusNames(history))
}

func TestStatusEngine_ConcurrentApplyKeepsMonotonicInvariant(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	statuses := []domain.Status{
		domain.StatusMessageReceipt, domain.StatusSent, domain.StatusDelivered,
		domain.StatusRead, domain.StatusPlayed,
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, st := range statuses {
			wg.Add(1)
			go func(st domain.Status) {
				defer wg.Done()
				_ = engine.Apply(ctx, "m1", st)
			}(st)
		}
	}
	wg.Wait()

	history, err := engine.GetHistory(ctx, "m1")
	require.NoError(t, err)
	require.NotEmpty(t, history)

	// The recorded levels must be strictly increasing: racing duplicates may
	// never both land.
	prev := -1
	for _, ev := range history {
		assert.Greater(t, ev.HierarchyLevel, prev,
			"history regressed or duplicated: %v", statusNames(history))
		prev = ev.HierarchyLevel
	}
	assert.Equal(t, domain.StatusPlayed.Name, history[len(history)-1].StatusName)
}

func TestStatusFromTransportCode(t *testing.T) {
	cases := []struct {
		code string
		want domain.Status
		ok   bool
	}{
		{"0", domain.StatusFailed, true},
		{"2", domain.StatusSent, true},
		{"3", domain.StatusDelivered, true},
		{"4", domain.StatusRead, true},
		{"5", domain.StatusPlayed, true},
		{"DELIVERY_ACK", domain.StatusDelivered, true},
		{"READ", domain.StatusRead, true},
		{"delivered", domain.StatusDelivered, true},
		{"bogus", domain.Status{}, false},
	}
	for _, tc := range cases {
		got, ok := domain.StatusFromTransportCode(tc.code)
		assert.Equal(t, tc.ok, ok, "code %q", tc.code)
		if tc.ok {
			assert.Equal(t, tc.want, got, "code %q", tc.code)
		}
	}
}
