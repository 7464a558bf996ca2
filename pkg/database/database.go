package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

func NewClients(dbURL, redisAddr string) (*Clients, error) {
	// Connect to PostgreSQL
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Clients{
		DB:    db,
		Redis: redisClient,
	}, nil
}

// CreateTables creates the profiles, emojis and emoji_likes tables.
// Deleting an emoji cascades to its likes via the foreign key.
func (c *Clients) CreateTables() error {
	schema := `CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		credits INT NOT NULL DEFAULT 3 CHECK (credits >= 0),
		tier TEXT NOT NULL DEFAULT 'free',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS emojis (
		id SERIAL PRIMARY KEY,
		image_url TEXT NOT NULL,
		object_key TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL,
		creator_user_id TEXT NOT NULL REFERENCES profiles(user_id),
		likes_count INT NOT NULL DEFAULT 0 CHECK (likes_count >= 0),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS emoji_likes (
		emoji_id INT NOT NULL REFERENCES emojis(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES profiles(user_id),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (emoji_id, user_id)
	);`

	if _, err := c.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("✅ Emoji tables are ready!")
	return nil
}
