package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"tycoon_bot/internal/db"
	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/repository"
	"tycoon_bot/internal/service"
)

// Dev smoke check for the event socket: registers a throwaway user, opens
// /ws with a real token and waits for the ready handshake plus any pushed
// events.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	ur := repository.NewUserRepository(pool)
	ctx := context.Background()

	u, err := ur.GetByTgID(ctx, 3001)
	if err != nil {
		u = &domain.User{TgID: 3001, Username: "smoke", FirstName: "Smoke"}
		if err := ur.Create(ctx, u); err != nil {
			log.Fatalf("create user: %v", err)
		}
	}

	service.InitJWT(jwtSecret)
	token, err := service.GenerateJWT(u.ID)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// first frame must be the ready handshake
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		log.Fatalf("read ready: %v", err)
	}
	var obj map[string]any
	_ = json.Unmarshal(msg, &obj)
	if t, _ := obj["type"].(string); t != "ready" {
		log.Fatalf("expected ready handshake, got: %s", string(msg))
	}
	log.Println("ready handshake received")

	// listen briefly for pushed events (start a task from the bot or API to
	// see a task_completed frame here)
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			continue
		}
		log.Printf("event: %s", string(msg))
	}

	log.Println("smoke test finished")
}
