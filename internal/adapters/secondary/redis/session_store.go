package redis

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// invalidationChannel carries session ids whose sessions were destroyed, so
// every instance can drop the live connections bound to them.
const invalidationChannel = "helpdesk:session:invalidated"

const tokenBytes = 32

// sessionRecord is the JSON value stored per session key.
type sessionRecord struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStore keeps opaque session tokens in Redis. Tokens are stored under
// keys derived from their SHA-256 hash, so a dump of the keyspace does not
// expose usable tokens.
type SessionStore struct {
	client *goredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a session store with the given session lifetime
func NewSessionStore(client *goredis.Client, ttl time.Duration, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Create opens a session for the user and returns the opaque token
func (s *SessionStore) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(raw)
	hash := hashToken(token)

	record := sessionRecord{
		ID:        hash,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(hash), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}

	s.logger.DebugContext(ctx, "session created", "session_id", hash, "user_id", userID)
	return token, nil
}

// Lookup resolves a token to its session and slides the expiration window
func (s *SessionStore) Lookup(ctx context.Context, token string) (*ports.Session, error) {
	hash := hashToken(token)
	key := sessionKey(hash)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("fetching session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling session: %w", err)
	}

	// Sliding expiration: active sessions stay alive.
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh session ttl", "error", err)
	}

	return &ports.Session{ID: record.ID, UserID: record.UserID}, nil
}

// Destroy removes the session and publishes its id on the invalidation
// channel. Destroying a token that no longer resolves is not an error.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	hash := hashToken(token)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(hash))
	pipe.Publish(ctx, invalidationChannel, hash)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}

	s.logger.DebugContext(ctx, "session destroyed", "session_id", hash)
	return nil
}

// SubscribeInvalidations calls fn with each invalidated session id until the
// context is cancelled. Runs its own goroutine.
func (s *SessionStore) SubscribeInvalidations(ctx context.Context, fn func(sessionID string)) {
	sub := s.client.Subscribe(ctx, invalidationChannel)

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fn(msg.Payload)
			}
		}
	}()
}

func sessionKey(hash string) string {
	return "helpdesk:session:" + hash
}

// hashToken derives the Redis key fragment from the opaque token
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
