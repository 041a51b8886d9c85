package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/gigplane/gigplane/internal/config"
	"github.com/gigplane/gigplane/internal/db"
)

func main() {
	email := flag.String("email", "", "Email of the user to promote")
	role := flag.String("role", "arbiter", "Target role: arbiter or moderator")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run cmd/adminutil/promote_role/main.go -email user@example.com -role arbiter")
	}
	if *role != "arbiter" && *role != "moderator" {
		log.Fatalf("role must be arbiter or moderator, got %q", *role)
	}

	cfg := config.Load()
	db.Init(cfg.DB.DSN)

	ct, err := db.Conn.Exec(context.Background(), `UPDATE users SET role = $1 WHERE email = $2`, *role, *email)
	if err != nil {
		log.Fatalf("failed to promote user: %v", err)
	}

	if ct.RowsAffected() == 0 {
		log.Fatalf("no user found with email: %s", *email)
	}

	fmt.Printf("User %s promoted to %s.\n", *email, *role)
}
