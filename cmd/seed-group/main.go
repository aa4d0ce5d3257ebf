package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/database"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/logger"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/repository"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/validator"
)

func main() {
	var file string
	var warm bool
	flag.StringVar(&file, "file", "seeds/hsa_sample.json", "Exam group JSON document")
	flag.BoolVar(&warm, "warm", true, "Write the new group into the Redis cache")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// ─── Read & Validate Document ─────────────────────────────────────
	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read exam group document")
	}

	var req model.CreateExamGroupRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Fatal().Err(err).Msg("Invalid JSON")
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		fields := validator.TranslateErrors(err)
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s: %s\n", k, fields[k])
		}
		log.Fatal().Int("errors", len(fields)).Msg("Exam group document failed validation")
	}

	// ─── Connect ──────────────────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	groupRepo := repository.NewExamGroupRepository(pool)

	fmt.Printf("=== Seeding exam group %q ===\n", req.Title)

	group, err := groupRepo.Create(ctx, &req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam group")
	}

	plan := engine.BuildPlan(group)
	fmt.Printf("Created group %s (%s), %d papers\n", group.ID, group.Variant, len(group.Papers))
	for _, tab := range plan.Tabs {
		fmt.Printf("  tab %d  %-28s %4d questions  %5ds\n", tab.Index, tab.Name, tab.Total, tab.AllottedSeconds)
	}
	fmt.Printf("  total %ds\n", plan.TotalSeconds)

	if !warm {
		return
	}

	// ─── Warm Cache ───────────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, cache will fill on first request")
		return
	}
	defer rdb.Close()

	if err := service.NewExamGroupService(groupRepo, rdb, log).WarmCache(ctx, group); err != nil {
		log.Warn().Err(err).Msg("Cache warm failed")
		return
	}
	fmt.Println("Cache warmed")
}
