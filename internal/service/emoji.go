package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/illegalcall/emoji-maker/internal/cache"
	"github.com/illegalcall/emoji-maker/internal/models"
	"github.com/illegalcall/emoji-maker/internal/store"
)

// promptPrefix steers the model toward emoji-style output regardless of
// what the user typed.
const promptPrefix = "friendly emoji style: "

// Generator produces one or more result URLs for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

// Blobs is the bucket holding the generated images.
type Blobs interface {
	Upload(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// EmojiService orchestrates generate, list, like and delete. Every
// operation is a sequential chain of adapter calls; a failure propagates
// unchanged and earlier steps are not rolled back, so a blob uploaded
// before a failed row insert stays behind as an accepted orphan.
type EmojiService struct {
	store      *store.Store
	blobs      Blobs
	generator  Generator
	likes      *cache.LikesCache
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger
}

func NewEmojiService(st *store.Store, blobs Blobs, generator Generator, likes *cache.LikesCache, logger *slog.Logger) *EmojiService {
	return &EmojiService{
		store:      st,
		blobs:      blobs,
		generator:  generator,
		likes:      likes,
		httpClient: http.DefaultClient,
		now:        time.Now,
		logger:     logger,
	}
}

// Generate runs the full create chain: generate, fetch bytes, upload,
// resolve public URL, insert the row. Validation happens before any
// external call is made.
func (s *EmojiService) Generate(ctx context.Context, userID, prompt string) (models.Emoji, error) {
	if userID == "" {
		return models.Emoji{}, ErrUnauthenticated
	}
	if strings.TrimSpace(prompt) == "" {
		return models.Emoji{}, ErrEmptyPrompt
	}

	urls, err := s.generator.Generate(ctx, promptPrefix+prompt)
	if err != nil {
		s.logger.Error("Generation failed", "user_id", userID, "error", err)
		return models.Emoji{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(urls) == 0 {
		s.logger.Error("Generation returned no output", "user_id", userID)
		return models.Emoji{}, fmt.Errorf("%w: empty output", ErrGenerationFailed)
	}

	data, err := s.fetchImage(ctx, urls[0])
	if err != nil {
		s.logger.Error("Image fetch failed", "user_id", userID, "url", urls[0], "error", err)
		return models.Emoji{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	key := fmt.Sprintf("%s_%d.png", userID, s.now().UnixMilli())
	if err := s.blobs.Upload(ctx, key, data); err != nil {
		s.logger.Error("Upload failed", "user_id", userID, "key", key, "error", err)
		return models.Emoji{}, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	publicURL := s.blobs.PublicURL(key)
	if publicURL == "" {
		s.logger.Error("No public URL for uploaded object", "key", key)
		return models.Emoji{}, fmt.Errorf("%w: no public url for %q", ErrStorageFailed, key)
	}

	emoji, err := s.store.InsertEmoji(ctx, models.Emoji{
		ImageURL:      publicURL,
		ObjectKey:     key,
		Prompt:        prompt,
		CreatorUserID: userID,
		LikesCount:    0,
	})
	if err != nil {
		// The blob already exists; it is not cleaned up here.
		s.logger.Error("Emoji insert failed, blob orphaned", "user_id", userID, "key", key, "error", err)
		return models.Emoji{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("Emoji created", "user_id", userID, "emoji_id", emoji.ID, "key", key)
	return emoji, nil
}

func (s *EmojiService) fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// List returns the caller's emojis, newest first. It never returns another
// user's emoji because the query itself is scoped by creator.
func (s *EmojiService) List(ctx context.Context, userID string) ([]models.Emoji, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	emojis, err := s.store.ListEmojisByCreator(ctx, userID)
	if err != nil {
		s.logger.Error("List failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return emojis, nil
}

// LikedEmojiIDs returns the ids of emojis the user has liked, read through
// the redis set cache. Cache trouble falls back to the database.
func (s *EmojiService) LikedEmojiIDs(ctx context.Context, userID string) ([]int, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	if ids, ok, err := s.likes.Get(ctx, userID); err != nil {
		s.logger.Warn("Liked set cache read failed", "user_id", userID, "error", err)
	} else if ok {
		return ids, nil
	}

	ids, err := s.store.ListLikedEmojiIDs(ctx, userID)
	if err != nil {
		s.logger.Error("Liked emoji lookup failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if err := s.likes.Replace(ctx, userID, ids); err != nil {
		s.logger.Warn("Liked set cache write failed", "user_id", userID, "error", err)
	}
	return ids, nil
}

// ToggleLike flips the like state for (emojiID, userID) and keeps the
// denormalized likes_count in step. Two concurrent toggles can both read
// the same state; the unique pair constraint rejects the duplicate insert
// and the duplicate delete removes nothing, so neither path double-counts.
func (s *EmojiService) ToggleLike(ctx context.Context, userID string, emojiID int) (bool, error) {
	if userID == "" {
		return false, ErrUnauthenticated
	}

	liked, err := s.store.GetLike(ctx, emojiID, userID)
	if err != nil {
		s.logger.Error("Like lookup failed", "user_id", userID, "emoji_id", emojiID, "error", err)
		return false, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if liked {
		removed, err := s.store.DeleteLike(ctx, emojiID, userID)
		if err != nil {
			s.logger.Error("Unlike failed", "user_id", userID, "emoji_id", emojiID, "error", err)
			return false, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
		if removed {
			if err := s.store.DecrementLikes(ctx, emojiID); err != nil {
				s.logger.Error("Likes decrement failed", "emoji_id", emojiID, "error", err)
				return false, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
			}
		}
		if err := s.likes.Remove(ctx, userID, emojiID); err != nil {
			s.logger.Warn("Liked set cache remove failed", "user_id", userID, "error", err)
		}
		return false, nil
	}

	if err := s.store.InsertLike(ctx, emojiID, userID); err != nil {
		if store.IsUniqueViolation(err) {
			// A concurrent toggle inserted first; it owns the counter bump.
			return true, nil
		}
		s.logger.Error("Like insert failed", "user_id", userID, "emoji_id", emojiID, "error", err)
		return false, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if err := s.store.IncrementLikes(ctx, emojiID); err != nil {
		s.logger.Error("Likes increment failed", "emoji_id", emojiID, "error", err)
		return false, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if err := s.likes.Add(ctx, userID, emojiID); err != nil {
		s.logger.Warn("Liked set cache add failed", "user_id", userID, "error", err)
	}
	return true, nil
}

// Delete removes the emoji's blob and then its row, which cascades the
// likes away. A miss on the owner-scoped lookup fails as ErrNotFound
// whether the emoji is absent or someone else's. If the blob removal
// fails the row is kept, so a later List still shows the emoji.
func (s *EmojiService) Delete(ctx context.Context, userID string, emojiID int) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	emoji, found, err := s.store.GetEmojiOwned(ctx, emojiID, userID)
	if err != nil {
		s.logger.Error("Emoji lookup failed", "user_id", userID, "emoji_id", emojiID, "error", err)
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if !found {
		return ErrNotFound
	}

	key := emoji.ObjectKey
	if key == "" {
		// Rows written before object keys were stored: fall back to the
		// trailing path segment of the public URL.
		key = objectKeyFromURL(emoji.ImageURL)
	}

	if err := s.blobs.Remove(ctx, key); err != nil {
		s.logger.Error("Blob removal failed, row kept", "emoji_id", emojiID, "key", key, "error", err)
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	if err := s.store.DeleteEmojiOwned(ctx, emojiID, userID); err != nil {
		s.logger.Error("Emoji delete failed", "emoji_id", emojiID, "error", err)
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if err := s.likes.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Liked set cache invalidate failed", "user_id", userID, "error", err)
	}

	s.logger.Info("Emoji deleted", "user_id", userID, "emoji_id", emojiID, "key", key)
	return nil
}

func objectKeyFromURL(imageURL string) string {
	parts := strings.Split(imageURL, "/")
	return parts[len(parts)-1]
}
