package api

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	jwtv4 "github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/emoji-maker/internal/cache"
	"github.com/illegalcall/emoji-maker/internal/config"
	"github.com/illegalcall/emoji-maker/internal/service"
	"github.com/illegalcall/emoji-maker/internal/store"
	"github.com/illegalcall/emoji-maker/pkg/database"
)

// mockAuth simulates the identity provider for testing
type mockAuth struct {
	userID string
	err    error
}

func (m *mockAuth) SignIn(email, password string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.userID, nil
}

type mockGenerator struct {
	urls []string
	err  error
}

func (g *mockGenerator) Generate(ctx context.Context, prompt string) ([]string, error) {
	return g.urls, g.err
}

type mockBlobs struct {
	uploads   map[string][]byte
	removed   []string
	removeErr error
}

func (b *mockBlobs) Upload(ctx context.Context, key string, data []byte) error {
	b.uploads[key] = data
	return nil
}

func (b *mockBlobs) Remove(ctx context.Context, key string) error {
	if b.removeErr != nil {
		return b.removeErr
	}
	b.removed = append(b.removed, key)
	return nil
}

func (b *mockBlobs) PublicURL(key string) string {
	return "https://project.supabase.co/storage/v1/object/public/emojis/" + key
}

type testFixture struct {
	server    *Server
	mock      sqlmock.Sqlmock
	miniRedis *miniredis.Miniredis
	auth      *mockAuth
	generator *mockGenerator
	blobs     *mockBlobs
}

// setupTestServer initializes a test instance of the API server. The JWT
// middleware is replaced by one injecting a parsed token for userID, so
// handlers resolve identity exactly as they do in production; an empty
// userID simulates an unauthenticated caller.
func setupTestServer(t *testing.T, userID string) *testFixture {
	// Setup mock PostgreSQL
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")

	// Setup mock Redis
	miniRedis, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(miniRedis.Close)

	redisClient := redis.NewClient(&redis.Options{
		Addr: miniRedis.Addr(),
	})

	// Create test config
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        ":8080",
			MaxRequests: 100,
			Environment: "development",
		},
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Expiration: 24 * time.Hour,
		},
	}

	clients := &database.Clients{
		DB:    db,
		Redis: redisClient,
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := &mockAuth{userID: "user-1"}
	generator := &mockGenerator{}
	blobs := &mockBlobs{uploads: map[string][]byte{}}

	st := store.New(db)
	likes := cache.NewLikesCache(redisClient, time.Minute)
	emojis := service.NewEmojiService(st, blobs, generator, likes, log)
	profiles := service.NewProfileService(st, log)

	server := NewServer(cfg, clients, emojis, profiles, auth, log)

	// Replace the JWT middleware with an identity stub for tests
	app := fiber.New()
	if userID != "" {
		app.Use(func(c *fiber.Ctx) error {
			token := jwtv4.NewWithClaims(jwtv4.SigningMethodHS256, jwtv4.MapClaims{
				"sub": userID,
			})
			c.Locals("user", token)
			return c.Next()
		})
	}

	app.Post("/api/login", server.handleLogin)
	app.Post("/api/profile", server.handleEnsureProfile)
	app.Post("/api/generate", server.handleGenerate)
	app.Get("/api/emojis", server.handleListEmojis)
	app.Get("/api/emojis/liked", server.handleLikedEmojis)
	app.Post("/api/emojis/:id/like", server.handleToggleLike)
	app.Delete("/api/emojis/:id", server.handleDeleteEmoji)
	server.app = app

	return &testFixture{
		server:    server,
		mock:      mock,
		miniRedis: miniRedis,
		auth:      auth,
		generator: generator,
		blobs:     blobs,
	}
}
