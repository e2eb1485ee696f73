package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nico4348/baileys-nest-sub001/internal/authstate/codec"
	"github.com/nico4348/baileys-nest-sub001/internal/authstate/domain"
	"github.com/nico4348/baileys-nest-sub001/internal/authstate/repository"
)

// CredentialsFactory creates fresh credentials when a session is seen for
// the first time. Injected so key generation stays the transport's concern.
type CredentialsFactory func() (*domain.Credentials, error)

// Service provides session-scoped auth-state persistence over the keyed blob
// store, serializing every value through the buffer codec.
type Service struct {
	repo    repository.AuthEntryRepository
	factory CredentialsFactory
	logger  *slog.Logger
}

// NewService creates a new auth-state Service.
func NewService(repo repository.AuthEntryRepository, factory CredentialsFactory, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		factory: factory,
		logger:  logger.With("service", "auth_state"),
	}
}

// AuthState is the aggregate view the transport consumes: the root
// credentials plus the batched signal key-store accessor. The shape is
// mandated by multi-device E2E transport protocols.
type AuthState struct {
	Creds *domain.Credentials
	Keys  *KeyStore
}

// GetAuthState loads the session's credentials, lazily initializing them via
// the factory on first access, and returns the aggregate view.
func (s *Service) GetAuthState(ctx context.Context, sessionID string) (*AuthState, error) {
	key := credsKey(sessionID)
	blob, found, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, &domain.StoreError{Op: "find", Key: key, Err: err}
	}

	var creds *domain.Credentials
	if !found {
		s.logger.InfoContext(ctx, "No stored credentials, initializing", "session_id", sessionID)
		creds, err = s.factory()
		if err != nil {
			return nil, fmt.Errorf("credentials factory failed: %w", err)
		}
		serialized, err := codec.Serialize(creds)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize fresh credentials: %w", err)
		}
		if err := s.repo.Save(ctx, key, serialized); err != nil {
			return nil, &domain.StoreError{Op: "save", Key: key, Err: err}
		}
		authStoreOpsCounter.WithLabelValues("init_creds").Inc()
	} else {
		tree, err := codec.Deserialize(blob)
		if err != nil {
			return nil, &domain.DeserializationError{Key: key, Err: err}
		}
		creds, err = domain.DecodeCredentials(tree)
		if err != nil {
			return nil, &domain.DeserializationError{Key: key, Err: err}
		}
	}

	return &AuthState{
		Creds: creds,
		Keys:  &KeyStore{svc: s, sessionID: sessionID},
	}, nil
}

// SaveCredentials persists updated credentials for a session.
func (s *Service) SaveCredentials(ctx context.Context, sessionID string, creds *domain.Credentials) error {
	serialized, err := codec.Serialize(creds)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}
	key := credsKey(sessionID)
	if err := s.repo.Save(ctx, key, serialized); err != nil {
		return &domain.StoreError{Op: "save", Key: key, Err: err}
	}
	authStoreOpsCounter.WithLabelValues("save_creds").Inc()
	return nil
}

// DeleteAuthState removes every entry of a session. Called on teardown.
func (s *Service) DeleteAuthState(ctx context.Context, sessionID string) error {
	prefix := sessionID + ":"
	if err := s.repo.DeleteByKeyPattern(ctx, prefix); err != nil {
		return &domain.StoreError{Op: "delete_pattern", Key: prefix, Err: err}
	}
	authStoreOpsCounter.WithLabelValues("teardown").Inc()
	s.logger.InfoContext(ctx, "Auth state deleted", "session_id", sessionID)
	return nil
}

// KeyStore is the batched signal key accessor for one session.
type KeyStore struct {
	svc       *Service
	sessionID string
}

// Get fetches the key material for all ids in a category concurrently and
// joins when all fetches complete. Missing ids are omitted from the result;
// a corrupt blob fails the whole batch with a DeserializationError.
func (k *KeyStore) Get(ctx context.Context, category string, ids []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			key := signalKeyKey(k.sessionID, category, id)
			blob, found, err := k.svc.repo.FindByKey(gctx, key)
			if err != nil {
				return &domain.StoreError{Op: "find", Key: key, Err: err}
			}
			if !found {
				return nil
			}
			value, err := codec.Deserialize(blob)
			if err != nil {
				return &domain.DeserializationError{Key: key, Err: err}
			}
			data, ok := value.([]byte)
			if !ok {
				return &domain.DeserializationError{Key: key, Err: fmt.Errorf("expected byte sequence, got %T", value)}
			}
			mu.Lock()
			out[id] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	authStoreOpsCounter.WithLabelValues("get_keys").Inc()
	return out, nil
}

// Set applies a batch of key writes: a present value is upserted, an absent
// value deletes the entry. All operations run concurrently and settle
// independently; one key's failure never aborts or blocks its siblings.
func (k *KeyStore) Set(ctx context.Context, data map[string]map[string][]byte) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for category, entries := range data {
		for id, value := range entries {
			wg.Add(1)
			go func(category, id string, value []byte) {
				defer wg.Done()
				key := signalKeyKey(k.sessionID, category, id)

				var err error
				if len(value) == 0 {
					if derr := k.svc.repo.DeleteByKey(ctx, key); derr != nil {
						err = &domain.StoreError{Op: "delete", Key: key, Err: derr}
					}
				} else {
					serialized, serr := codec.Serialize(value)
					if serr != nil {
						err = fmt.Errorf("failed to serialize key %q: %w", key, serr)
					} else if serr := k.svc.repo.Save(ctx, key, serialized); serr != nil {
						err = &domain.StoreError{Op: "save", Key: key, Err: serr}
					}
				}
				if err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}(category, id, value)
		}
	}
	wg.Wait()
	authStoreOpsCounter.WithLabelValues("set_keys").Inc()
	return errors.Join(errs...)
}

func credsKey(sessionID string) string {
	return sessionID + ":creds"
}

func signalKeyKey(sessionID, category, id string) string {
	return sessionID + ":" + domain.SignalKey{Category: category, ID: id}.LogicalKey()
}
