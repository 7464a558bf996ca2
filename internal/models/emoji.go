package models

import "time"

// Emoji is a generated image row in the emojis table.
type Emoji struct {
	ID            int       `json:"id" db:"id"`
	ImageURL      string    `json:"image_url" db:"image_url"`
	ObjectKey     string    `json:"object_key" db:"object_key"` // key of the backing storage object
	Prompt        string    `json:"prompt" db:"prompt"`
	CreatorUserID string    `json:"creator_user_id" db:"creator_user_id"`
	LikesCount    int       `json:"likes_count" db:"likes_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// EmojiLike is a single like on an emoji, unique per (emoji_id, user_id).
type EmojiLike struct {
	EmojiID   int       `json:"emoji_id" db:"emoji_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse mirrors what the frontend expects: the public image URL
// plus the full created row.
type GenerateResponse struct {
	Images []string `json:"images"`
	Data   Emoji    `json:"data"`
}

// ToggleLikeResponse reports the like state after a toggle.
type ToggleLikeResponse struct {
	Liked bool `json:"liked"`
}
