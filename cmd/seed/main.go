// Package main provides a tool to seed a ReelVault database with demo data.
//
// It creates (or reuses) a demo account and saves a spread of clips across
// collections and tags, including the search index, so a fresh install has
// something to browse.
//
// Usage:
//
//	DATA_PATH=~/reelvault go run ./cmd/seed
//	DATA_PATH=~/reelvault go run ./cmd/seed -email demo@example.com -password demo-password
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reelvault/reelvault-server/internal/auth"
	"github.com/reelvault/reelvault-server/internal/domain"
	"github.com/reelvault/reelvault-server/internal/id"
	"github.com/reelvault/reelvault-server/internal/search"
	"github.com/reelvault/reelvault-server/internal/service"
	"github.com/reelvault/reelvault-server/internal/store"
)

var (
	email    = flag.String("email", "demo@example.com", "Demo account email")
	password = flag.String("password", "demo-password", "Demo account password")
)

type seedClip struct {
	url        string
	title      string
	collection string
	tags       []string
}

var seedClips = []seedClip{
	{"https://www.instagram.com/reel/C1aaa111AAA/", "Weeknight pasta in 20 minutes", "Recipes", []string{"pasta", "dinner"}},
	{"https://www.instagram.com/reel/C2bbb222BBB/", "Crispy smashed potatoes", "Recipes", []string{"dinner", "sides"}},
	{"https://www.instagram.com/reel/C3ccc333CCC/", "5 minute morning mobility", "Workouts", []string{"mobility"}},
	{"https://www.instagram.com/reel/C4ddd444DDD/", "Deadlift setup checklist", "Workouts", []string{"gym", "strength"}},
	{"https://www.instagram.com/reel/C5eee555EEE/", "Tokyo ramen crawl", "Travel", []string{"ramen", "japan"}},
	{"https://www.instagram.com/reel/C6fff666FFF/", "Packing cubes actually work", "Travel", nil},
	{"https://www.instagram.com/reel/C7ggg777GGG/", "Bookshelf organization before and after", "", []string{"home"}},
	{"https://www.instagram.com/reel/C8hhh888HHH/", "That dog again", "", nil},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/reelvault")
	}

	fmt.Printf("Opening data directory: %s\n", dataPath)

	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(filepath.Join(dataPath, "db"), logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	index, err := search.NewClipIndex(search.Options{DataPath: dataPath, Logger: logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	ctx := context.Background()

	user, err := findOrCreateUser(ctx, s)
	if err != nil {
		log.Fatalf("Failed to set up demo user: %v", err)
	}
	fmt.Printf("Seeding clips for %s (%s)\n", user.Email, user.ID)

	resolver := service.NewResolverService(s, nil, logger)
	clips := service.NewClipService(s, resolver, nil, index, nil, logger)

	created := 0
	for _, seed := range seedClips {
		_, err := clips.SaveClip(ctx, service.SaveClipRequest{
			URL:        seed.url,
			Title:      seed.title,
			Collection: seed.collection,
			Tags:       seed.tags,
			UserID:     user.ID,
		})
		if err != nil {
			// Duplicates on reruns are expected.
			fmt.Printf("  skip %s: %v\n", seed.url, err)
			continue
		}
		created++
		fmt.Printf("  saved %q\n", seed.title)
	}

	fmt.Printf("\nDone. %d clips created.\n", created)
	fmt.Printf("Sign in with %s / %s\n", *email, *password)
}

func findOrCreateUser(ctx context.Context, s *store.Store) (*domain.User, error) {
	existing, err := s.GetUserByEmail(ctx, *email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		Email:        *email,
		PasswordHash: hash,
		DisplayName:  "Demo User",
	}
	user.InitTimestamps()

	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
