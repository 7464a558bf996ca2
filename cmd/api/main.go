package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	storage_go "github.com/supabase-community/storage-go"

	"github.com/illegalcall/emoji-maker/internal/api"
	"github.com/illegalcall/emoji-maker/internal/cache"
	"github.com/illegalcall/emoji-maker/internal/config"
	"github.com/illegalcall/emoji-maker/internal/pkg/supabase"
	"github.com/illegalcall/emoji-maker/internal/replicate"
	"github.com/illegalcall/emoji-maker/internal/service"
	"github.com/illegalcall/emoji-maker/internal/store"
	"github.com/illegalcall/emoji-maker/pkg/database"
)

func main() {
	// Load configuration
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment")
	}
	cfg := config.LoadConfig()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Initialize database clients
	db, err := database.NewClients(cfg.Database.URL, cfg.Redis.Addr)
	if err != nil {
		log.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.DB.Close()
	if err := db.CreateTables(); err != nil {
		log.Error("Failed to create tables", "error", err)
		os.Exit(1)
	}
	log.Info("✅ Connected to databases")

	// Identity provider
	projectRef := cfg.Supabase.ProjectRef
	if projectRef == "" {
		projectRef = supabase.ExtractProjectRef(cfg.Supabase.URL)
	}
	auth, err := supabase.New(projectRef, cfg.Supabase.ServiceKey, log)
	if err != nil {
		log.Error("Failed to connect to Supabase auth", "error", err)
		os.Exit(1)
	}
	log.Info("✅ Connected to Supabase auth")

	// Storage bucket
	storageClient := storage_go.NewClient(
		strings.TrimRight(cfg.Supabase.URL, "/")+"/storage/v1",
		cfg.Supabase.ServiceKey,
		nil,
	)
	blobs := store.NewBlobStore(storageClient, cfg.Supabase.StorageBucket)

	// Services
	st := store.New(db.DB)
	likes := cache.NewLikesCache(db.Redis, cfg.Redis.LikedSetTTL)
	generator := replicate.NewClient(cfg.Replicate, log)
	emojis := service.NewEmojiService(st, blobs, generator, likes, log)
	profiles := service.NewProfileService(st, log)

	// Create and start server
	server := api.NewServer(cfg, db, emojis, profiles, auth, log)
	if err := server.Start(); err != nil {
		log.Error("Server error", "error", err)
		os.Exit(1)
	}
}
