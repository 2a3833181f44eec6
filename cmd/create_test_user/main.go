package main

import (
	"context"
	"log"
	"os"

	"tycoon_bot/internal/db"
	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/repository"
	"tycoon_bot/internal/service"
)

func main() {
	// expects DATABASE_URL and JWT_SECRET env vars
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewUserRepository(pool)
	ctx := context.Background()

	tgID := int64(1234567890)

	existing, err := repo.GetByTgID(ctx, tgID)
	var u *domain.User
	if err == nil {
		u = existing
		log.Printf("user already exists id=%d\n", u.ID)
	} else {
		u = &domain.User{
			TgID:      tgID,
			Username:  "testuser",
			FirstName: "Tester",
			Currency:  100000,
		}

		if err := repo.Create(ctx, u); err != nil {
			log.Fatalf("create user failed: %v", err)
		}

		log.Printf("user created id=%d\n", u.ID)
	}

	u2, err := repo.GetByTgID(ctx, u.TgID)
	if err != nil {
		log.Fatalf("get by tg id failed: %v", err)
	}
	log.Printf("fetched user id=%d currency=%d level=%d prestige=%d\n", u2.ID, u2.Currency, u2.Level, u2.Prestige)

	service.InitJWT(secret)
	token, err := service.GenerateJWT(u2.ID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
