package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ethicalmeat/backend/config"
	httpDelivery "github.com/ethicalmeat/backend/internal/delivery/http"
	"github.com/ethicalmeat/backend/internal/domain"
	"github.com/ethicalmeat/backend/internal/infrastructure/cache"
	"github.com/ethicalmeat/backend/internal/infrastructure/emh"
	"github.com/ethicalmeat/backend/internal/infrastructure/foodrepo"
	"github.com/ethicalmeat/backend/internal/infrastructure/oracle"
	"github.com/ethicalmeat/backend/internal/infrastructure/store"
	"github.com/ethicalmeat/backend/internal/usecase"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting EthicalMeat Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	ratingRows, err := emh.LoadRatings(cfg.EMH.RatingsPath)
	if err != nil {
		log.Fatalf("Failed to load ratings: %v", err)
	}
	mapper := usecase.NewRatingMapper(ratingRows)
	log.Printf("Rating table: %d entries", mapper.Size())

	var oracleClient domain.Oracle
	if cfg.Oracle.Enabled {
		oracleClient = oracle.NewOpenAIClient(cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.BaseURL)
		log.Printf("Oracle enabled: model=%s", cfg.Oracle.Model)
	}

	classifier := usecase.NewProductClassifier(usecase.ClassifierConfig{
		UseRules:           cfg.Classifier.UseRules,
		Oracle:             oracleClient,
		OracleTimeout:      cfg.Oracle.Timeout,
		EnableDebugLogging: cfg.Classifier.EnableDebugLogging,
	})

	var mappingStore domain.MappingStore
	if cfg.Store.Path != "" {
		s, err := store.OpenSQLite(context.Background(), cfg.Store.Path)
		if err != nil {
			log.Printf("WARNING: mapping store unavailable (%v), barcode lookups disabled", err)
		} else {
			mappingStore = s
			defer s.Close()
		}
	}

	var source domain.ProductSource
	if cfg.FoodRepo.APIKey != "" {
		client := foodrepo.NewClient(cfg.FoodRepo.APIKey, cfg.FoodRepo.BaseURL)
		source = foodrepo.NewCachedSource(client, cache.NewMemoryCache(), cfg.Cache.TTL)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineConfig{
		Source:     source,
		Filter:     usecase.NewMeatFilter(),
		Classifier: classifier,
		Mapper:     mapper,
		Store:      mappingStore,
	})

	handler := httpDelivery.NewHandler(pipeline, mappingStore)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
