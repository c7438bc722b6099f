// Command token-generator mints an operator bearer token for the startask
// API. Tokens are generated offline from the same STARTASK_ environment the
// server reads, so there is no login endpoint to protect.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"startask/internal/config"
	"startask/internal/service/auth"
)

func main() {
	lifetime := flag.Int("lifetime-minutes", 0,
		"override the configured token lifetime (minutes)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	authCfg := cfg.Auth
	if *lifetime > 0 {
		authCfg.TokenLifetimeMinutes = *lifetime
	}

	jwtService, err := auth.NewJWTService(authCfg)
	if err != nil {
		log.Fatalf("failed to create jwt service: %v", err)
	}

	token, err := jwtService.GenerateToken(context.Background())
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}

	fmt.Println(token)
}
