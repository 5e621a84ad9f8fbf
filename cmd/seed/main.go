package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.json", "JSON list of {name, measurement_unit}")
	tagsPath := flag.String("tags", "data/tags.json", "JSON list of {name, color, slug}; empty to skip")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Env.LogMode())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.Open(cfg.DatabaseDSN(), appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir, appLog); err != nil {
		appLog.Fatal("Failed to run migrations", "error", err)
	}

	ctx := context.Background()
	catalog := service.NewCatalogService(db)

	var ingredients []types.Ingredient
	if err := readJSON(*ingredientsPath, &ingredients); err != nil {
		appLog.Fatal("Failed to read ingredients", "path", *ingredientsPath, "error", err)
	}
	added, err := catalog.ImportIngredients(ctx, ingredients)
	if err != nil {
		appLog.Fatal("Failed to import ingredients", "error", err)
	}
	appLog.Info("Imported ingredients", "read", len(ingredients), "added", added)

	if *tagsPath == "" {
		return
	}
	var tags []types.Tag
	if err := readJSON(*tagsPath, &tags); err != nil {
		appLog.Fatal("Failed to read tags", "path", *tagsPath, "error", err)
	}
	for _, t := range tags {
		tag, err := catalog.CreateTag(ctx, t)
		if errors.Is(err, service.ErrConflict) {
			appLog.Debug("Tag already exists", "name", t.Name)
			continue
		}
		if err != nil {
			appLog.Fatal("Failed to create tag", "name", t.Name, "error", err)
		}
		appLog.Info("Created tag", "name", tag.Name, "slug", tag.Slug)
	}
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}
