package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/idempotency"
	"github.com/gofiber/storage/redis"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const IdempotencyHeader = "X-Idempotency-Key"

// Keys are namespaced per caller before they reach the replay store.
var keyNamespace = uuid.MustParse("5b7e0c1a-93d4-4f8e-a2c6-0d1f3e4b5a69")

// IdempotencyScope names the caller a key belongs to. An empty scope means
// the request cannot be attributed to anyone and is never replayed.
type IdempotencyScope func(c *fiber.Ctx) string

// ByAccount scopes keys to the authenticated account. It must run after
// JWTProtected.
func ByAccount(c *fiber.Ctx) string {
	userID, err := UserID(c)
	if err != nil {
		return ""
	}
	return "account:" + userID.String()
}

// ByEmail scopes keys to the email in the request body, for routes that
// run before an account exists.
func ByEmail(c *fiber.Ctx) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return ""
	}
	return "email:" + email
}

// NewIdempotencyStore keeps replayed responses and request fingerprints in
// Redis when REDIS_URL is set so every instance sees them; otherwise they
// stay in process memory.
func NewIdempotencyStore(cfg *config.Config) fiber.Storage {
	if cfg.RedisURL != "" {
		slog.Info("idempotency keys stored in redis")
		return redis.New(redis.Config{
			URL:   cfg.RedisURL,
			Reset: false,
		})
	}
	return newMemoryStore()
}

// Idempotency replays the first completed response for a repeated
// X-Idempotency-Key from the same caller. Reusing a key with a different
// body is rejected.
func Idempotency(cfg *config.Config, store fiber.Storage, scope IdempotencyScope) fiber.Handler {
	replay := idempotency.New(idempotency.Config{
		Lifetime:  cfg.IdempotencyLifetime,
		KeyHeader: IdempotencyHeader,
		KeyHeaderValidate: func(key string) error {
			if _, err := uuid.Parse(key); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, IdempotencyHeader+" must be a UUID")
			}
			return nil
		},
		Storage: store,
	})

	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyHeader)
		// Requests without a key are processed normally.
		if key == "" {
			return c.Next()
		}
		if _, err := uuid.Parse(key); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Code: "validation_error", Message: IdempotencyHeader + " must be a UUID",
			})
		}

		owner := scope(c)
		if owner == "" {
			c.Request().Header.Del(IdempotencyHeader)
			return c.Next()
		}
		scoped := uuid.NewSHA1(keyNamespace, []byte(owner+"|"+key)).String()

		sum := sha256.Sum256(c.Body())
		fingerprint := hex.EncodeToString(sum[:])
		fpKey := "fingerprint:" + scoped

		prev, err := store.Get(fpKey)
		if err != nil {
			return err
		}
		switch {
		case len(prev) == 0:
			if err := store.Set(fpKey, []byte(fingerprint), cfg.IdempotencyLifetime); err != nil {
				return err
			}
		case string(prev) != fingerprint:
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error:   true,
				Code:    "validation_error",
				Message: IdempotencyHeader + " was already used with a different request",
			})
		}

		c.Request().Header.Set(IdempotencyHeader, scoped)
		return replay(c)
	}
}

// memoryStore is a fiber.Storage over go-cache.
type memoryStore struct {
	cache *cache.Cache
}

func newMemoryStore() *memoryStore {
	return &memoryStore{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (s *memoryStore) Get(key string) ([]byte, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.([]byte), nil
	}
	return nil, nil
}

func (s *memoryStore) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	if exp <= 0 {
		exp = cache.NoExpiration
	}
	buf := make([]byte, len(val))
	copy(buf, val)
	s.cache.Set(key, buf, exp)
	return nil
}

func (s *memoryStore) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *memoryStore) Reset() error {
	s.cache.Flush()
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
