package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/database"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/logger"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
	"golang.org/x/term"
)

// issue-token mints a JWT for local testing. Student tokens register the
// single-device session in Redis, so -reset is needed to mint a second one.
func main() {
	var kind, perms string
	var id int
	var reset bool
	flag.StringVar(&kind, "type", "student", "Token type: student or admin")
	flag.IntVar(&id, "id", 1, "Student profile ID or admin ID")
	flag.StringVar(&perms, "perms", service.PermPublishGroups+","+service.PermResetSessions, "Comma-separated admin permissions")
	flag.BoolVar(&reset, "reset", false, "Release the student's current device before issuing")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	authService := service.NewAuthService(cfg, rdb)

	var token string
	switch service.TokenType(kind) {
	case service.TokenTypeStudent:
		if reset {
			if err := authService.ResetStudentSession(ctx, id); err != nil {
				log.Fatal().Err(err).Msg("Failed to reset session")
			}
		}
		token, err = authService.GenerateStudentToken(ctx, id)
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			log.Fatal().Int("profile_id", id).Msg("Student already has an active device, rerun with -reset")
		}
	case service.TokenTypeAdmin:
		token, err = authService.GenerateAdminToken(id, splitPerms(perms))
	default:
		log.Fatal().Str("type", kind).Msg("Unknown token type")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}

	// Bare token when piped, e.g. TOKEN=$(issue-token -id 7).
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(token)
		return
	}

	fmt.Printf("=== %s token (id %d, expires in %s) ===\n", kind, id, cfg.JWTExpiry)
	fmt.Println(token)
}

func splitPerms(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
