// Package supabase adapts Supabase auth (gotrue) as the identity provider:
// it validates credentials and hands back the provider-owned user id that
// every other component keys on.
package supabase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/supabase-community/gotrue-go"
)

// ExtractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func ExtractProjectRef(url string) string {
	// Remove any protocol prefix
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	// Split by the first dot to get just the project reference
	parts := strings.Split(url, ".")
	return parts[0]
}

// Auth wraps the gotrue client. It is constructed once at process start and
// passed in wherever identity resolution is needed; there is no package
// level singleton.
type Auth struct {
	client gotrue.Client
	log    *slog.Logger
}

func New(projectRef, serviceKey string, log *slog.Logger) (*Auth, error) {
	client := gotrue.New(projectRef, serviceKey)

	// Test the connection
	if _, err := client.GetSettings(); err != nil {
		return nil, fmt.Errorf("failed to connect to Supabase: %w", err)
	}

	return &Auth{client: client, log: log}, nil
}

// SignIn validates the credentials and returns the Supabase user id.
func (a *Auth) SignIn(email, password string) (string, error) {
	a.log.Info("Attempting authentication", "email", email)

	res, err := a.client.SignInWithEmailPassword(email, password)
	if err != nil {
		a.log.Error("Authentication error", "email", email, "error", err)
		return "", fmt.Errorf("authentication failed: %w", err)
	}

	if res == nil || res.AccessToken == "" {
		return "", fmt.Errorf("authentication failed: empty token response")
	}

	userID := res.User.ID.String()
	a.log.Info("User authenticated", "email", email, "user_id", userID)
	return userID, nil
}
