// Command seed fills an empty database with demo accounts and posts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
	"github.com/mietgram/campus-api/internal/core/service"
	mongodb "github.com/mietgram/campus-api/internal/infrastructure/db/mongo"
	"github.com/mietgram/campus-api/internal/pkg/config"
	"github.com/mietgram/campus-api/pkg/logger"
)

const seedPassword = "password123"

type seedUser struct {
	username, fullName, email, bio string
	role                           domain.CampusRole
}

var seedUsers = []seedUser{
	{"admin_miet", "MIET System Admin", "admin@mietjammu.in", "", domain.RoleAdmin},
	{"rahul_cse", "Rahul Singh", "rahul.singh@mietjammu.in", "Code, Coffee, MIET 💻☕", domain.RoleStudent},
	{"ananya_ece", "Ananya Gupta", "ananya.gupta@mietjammu.in", "Electronics enthusiast & photographer 📸", domain.RoleStudent},
}

func main() {
	reset := flag.Bool("reset", false, "drop users and posts before seeding")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "mietgram-seed"})

	if err := seed(context.Background(), cfg, log, *reset); err != nil {
		log.Error().Err(err).Msg("seeding failed")
		os.Exit(1)
	}
	log.Info().Msg("seeding completed")
}

func seed(ctx context.Context, cfg *config.Config, log zerolog.Logger, reset bool) error {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if reset {
		for _, name := range []string{"users", "posts"} {
			if err := db.Collection(name).Drop(ctx); err != nil {
				return fmt.Errorf("drop %s: %w", name, err)
			}
		}
		log.Info().Msg("data cleared")
	}

	users := mongodb.NewIdentityRepository(db, cfg.StoreTimeout)
	posts := mongodb.NewPostRepository(db, cfg.StoreTimeout)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := posts.EnsureIndexes(ctx); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), service.PasswordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	ids := make(map[string]string, len(seedUsers))
	for _, su := range seedUsers {
		u, err := users.Create(ctx, &domain.User{
			Username:     su.username,
			FullName:     su.fullName,
			Email:        su.email,
			PasswordHash: string(hash),
			ProfilePic:   domain.DefaultProfilePic,
			Bio:          su.bio,
			Role:         su.role,
			IsVerified:   true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", su.username, err)
		}
		ids[su.username] = u.ID
		log.Info().Str("username", u.Username).Str("id", u.ID).Msg("user created")
	}

	rahul, ananya := ids["rahul_cse"], ids["ananya_ece"]
	if err := users.Follow(ctx, rahul, ananya); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	if err := users.Follow(ctx, ananya, rahul); err != nil {
		return fmt.Errorf("follow: %w", err)
	}

	postService := service.NewPostService(posts, users, cfg.FeedMaxLimit, log)
	for _, p := range []struct {
		in    ports.CreatePostInput
		liker string
	}{
		{ports.CreatePostInput{AuthorID: rahul, MediaURL: "https://picsum.photos/seed/miet1/800/800", Caption: "First day at MIET Jammu! 🏛️ #MIET #CSE"}, ananya},
		{ports.CreatePostInput{AuthorID: ananya, MediaURL: "https://picsum.photos/seed/miet2/800/800", Caption: "Beautiful evening at the campus Central Garden. 🌸"}, rahul},
	} {
		post, err := postService.CreatePost(ctx, p.in)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		if _, err := postService.ToggleLike(ctx, post.ID, p.liker); err != nil {
			return fmt.Errorf("like post: %w", err)
		}
	}
	return nil
}
