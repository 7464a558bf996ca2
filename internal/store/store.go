// Package store is the persistence boundary: row-level CRUD over the
// profiles, emojis and emoji_likes tables plus blob operations on the
// emojis storage bucket. Single-row lookups report "not found" through a
// found flag rather than the error channel, so callers can tell a miss
// from a broken query.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/illegalcall/emoji-maker/internal/models"
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, the distinguishable failure the loser of a duplicate insert
// race receives.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (s *Store) GetProfile(ctx context.Context, userID string) (models.Profile, bool, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile,
		"SELECT user_id, credits, tier, created_at FROM profiles WHERE user_id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, false, nil
		}
		return models.Profile{}, false, fmt.Errorf("get profile: %w", err)
	}
	return profile, true, nil
}

// InsertProfile creates a profile with the schema defaults (3 credits, free
// tier). A concurrent first-contact insert for the same user fails with a
// unique violation; see IsUniqueViolation.
func (s *Store) InsertProfile(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile,
		"INSERT INTO profiles (user_id) VALUES ($1) RETURNING user_id, credits, tier, created_at", userID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return profile, nil
}

func (s *Store) InsertEmoji(ctx context.Context, emoji models.Emoji) (models.Emoji, error) {
	err := s.db.GetContext(ctx, &emoji,
		`INSERT INTO emojis (image_url, object_key, prompt, creator_user_id, likes_count)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, image_url, object_key, prompt, creator_user_id, likes_count, created_at`,
		emoji.ImageURL, emoji.ObjectKey, emoji.Prompt, emoji.CreatorUserID, emoji.LikesCount)
	if err != nil {
		return models.Emoji{}, fmt.Errorf("insert emoji: %w", err)
	}
	return emoji, nil
}

// ListEmojisByCreator returns every emoji the user created, newest first.
func (s *Store) ListEmojisByCreator(ctx context.Context, userID string) ([]models.Emoji, error) {
	var emojis []models.Emoji
	err := s.db.SelectContext(ctx, &emojis,
		`SELECT id, image_url, object_key, prompt, creator_user_id, likes_count, created_at
		 FROM emojis WHERE creator_user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list emojis: %w", err)
	}
	return emojis, nil
}

// GetEmojiOwned is the lookup-scoped-by-owner operation: it only matches an
// emoji created by userID, so a miss covers both "does not exist" and
// "not yours".
func (s *Store) GetEmojiOwned(ctx context.Context, id int, userID string) (models.Emoji, bool, error) {
	var emoji models.Emoji
	err := s.db.GetContext(ctx, &emoji,
		`SELECT id, image_url, object_key, prompt, creator_user_id, likes_count, created_at
		 FROM emojis WHERE id = $1 AND creator_user_id = $2`, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Emoji{}, false, nil
		}
		return models.Emoji{}, false, fmt.Errorf("get emoji: %w", err)
	}
	return emoji, true, nil
}

// DeleteEmojiOwned removes the row; the foreign key cascades to emoji_likes.
func (s *Store) DeleteEmojiOwned(ctx context.Context, id int, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM emojis WHERE id = $1 AND creator_user_id = $2", id, userID); err != nil {
		return fmt.Errorf("delete emoji: %w", err)
	}
	return nil
}

func (s *Store) GetLike(ctx context.Context, emojiID int, userID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM emoji_likes WHERE emoji_id = $1 AND user_id = $2", emojiID, userID)
	if err != nil {
		return false, fmt.Errorf("get like: %w", err)
	}
	return count > 0, nil
}

func (s *Store) InsertLike(ctx context.Context, emojiID int, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO emoji_likes (emoji_id, user_id) VALUES ($1, $2)", emojiID, userID); err != nil {
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// DeleteLike removes the like row. Deleting an already-removed like is a
// harmless no-op; removed reports whether a row actually went away so the
// caller can skip the counter decrement otherwise.
func (s *Store) DeleteLike(ctx context.Context, emojiID int, userID string) (removed bool, err error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM emoji_likes WHERE emoji_id = $1 AND user_id = $2", emojiID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return affected > 0, nil
}

func (s *Store) ListLikedEmojiIDs(ctx context.Context, userID string) ([]int, error) {
	var ids []int
	err := s.db.SelectContext(ctx, &ids,
		"SELECT emoji_id FROM emoji_likes WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("list liked emojis: %w", err)
	}
	return ids, nil
}

// IncrementLikes bumps the cached counter in a single UPDATE so concurrent
// toggles cannot lose increments.
func (s *Store) IncrementLikes(ctx context.Context, emojiID int) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE emojis SET likes_count = likes_count + 1 WHERE id = $1", emojiID); err != nil {
		return fmt.Errorf("increment likes: %w", err)
	}
	return nil
}

// DecrementLikes floors at zero; the unique pair constraint keeps the
// counter honest against the real like rows.
func (s *Store) DecrementLikes(ctx context.Context, emojiID int) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE emojis SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1", emojiID); err != nil {
		return fmt.Errorf("decrement likes: %w", err)
	}
	return nil
}
