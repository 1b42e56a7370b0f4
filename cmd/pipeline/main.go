package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ethicalmeat/backend/config"
	"github.com/ethicalmeat/backend/internal/domain"
	"github.com/ethicalmeat/backend/internal/infrastructure/emh"
	"github.com/ethicalmeat/backend/internal/infrastructure/foodrepo"
	"github.com/ethicalmeat/backend/internal/infrastructure/openfoodfacts"
	"github.com/ethicalmeat/backend/internal/infrastructure/oracle"
	"github.com/ethicalmeat/backend/internal/infrastructure/report"
	"github.com/ethicalmeat/backend/internal/infrastructure/store"
	"github.com/ethicalmeat/backend/internal/usecase"
)

func main() {
	godotenv.Load()

	limit := flag.Int("limit", 100, "maximum number of products to process (0 means no limit)")
	cachePath := flag.String("cache", "data/products_cache.json", "product cache file")
	noCache := flag.Bool("no-cache", false, "ignore the product cache and fetch fresh data")
	ratingsPath := flag.String("ratings", "", "welfare ratings CSV (defaults to the configured path)")
	outputBase := flag.String("output", "data/output", "output base path, written as <base>.json, <base>.csv and <base>_mappings.csv")
	storePath := flag.String("store", "", "sqlite database path (defaults to the configured path)")
	noStore := flag.Bool("no-store", false, "skip persisting the run to sqlite")
	noRules := flag.Bool("no-rules", false, "disable the rule classifier")
	noEnrich := flag.Bool("no-enrich", false, "skip Open Food Facts brand enrichment")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	path := *ratingsPath
	if path == "" {
		path = cfg.EMH.RatingsPath
	}
	ratingRows, err := emh.LoadRatings(path)
	if err != nil {
		log.Fatalf("Failed to load ratings from %s: %v", path, err)
	}
	mapper := usecase.NewRatingMapper(ratingRows)
	if mapper.Size() == 0 {
		log.Printf("WARNING: rating table is empty, no product will resolve to a rating")
	}
	log.Printf("Rating table: %d entries", mapper.Size())

	products := loadProducts(ctx, cfg, *cachePath, *noCache, *limit)

	if cfg.OpenFoodFacts.Enabled && !*noEnrich {
		off := openfoodfacts.NewClient(cfg.OpenFoodFacts.BaseURL)
		products = off.EnrichProducts(ctx, products)
	}

	var oracleClient domain.Oracle
	if cfg.Oracle.Enabled {
		oracleClient = oracle.NewOpenAIClient(cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.BaseURL)
		log.Printf("Oracle enabled: model=%s", cfg.Oracle.Model)
	}

	classifier := usecase.NewProductClassifier(usecase.ClassifierConfig{
		UseRules:           cfg.Classifier.UseRules && !*noRules,
		Oracle:             oracleClient,
		OracleTimeout:      cfg.Oracle.Timeout,
		EnableDebugLogging: cfg.Classifier.EnableDebugLogging,
	})

	var mappingStore domain.MappingStore
	dbPath := *storePath
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}
	if !*noStore && dbPath != "" {
		s, err := store.OpenSQLite(ctx, dbPath)
		if err != nil {
			log.Printf("WARNING: mapping store unavailable (%v), run will not be persisted", err)
		} else {
			mappingStore = s
			defer s.Close()
		}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineConfig{
		Filter:     usecase.NewMeatFilter(),
		Classifier: classifier,
		Mapper:     mapper,
		Store:      mappingStore,
	})

	result, err := pipeline.ProcessRecords(ctx, products)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	if err := report.WriteResults(*outputBase, result.Products); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	printSummary(result)
}

// loadProducts returns the input batch, from the local cache when present and
// allowed, otherwise freshly fetched and cached for the next run.
func loadProducts(ctx context.Context, cfg *config.Config, cachePath string, noCache bool, limit int) []domain.ProductRecord {
	if !noCache {
		if cached, err := foodrepo.LoadProductsCache(cachePath); err == nil {
			log.Printf("Loaded %d products from cache %s", len(cached), cachePath)
			if limit > 0 && len(cached) > limit {
				cached = cached[:limit]
			}
			return cached
		}
	}

	client := foodrepo.NewClient(cfg.FoodRepo.APIKey, cfg.FoodRepo.BaseURL)
	products, err := client.FetchProducts(ctx, limit)
	if err != nil {
		log.Fatalf("Failed to fetch products: %v", err)
	}

	if err := foodrepo.SaveProductsCache(cachePath, products); err != nil {
		log.Printf("WARNING: caching products failed: %v", err)
	}
	return products
}

func printSummary(result *usecase.RunResult) {
	line := strings.Repeat("=", 60)

	fmt.Println(line)
	fmt.Printf("Run %s finished in %s\n", result.RunID, result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	fmt.Println(line)
	fmt.Printf("Products fetched:     %d\n", result.Fetched)
	fmt.Printf("Meat products:        %d\n", result.FilterStats.Meat)
	fmt.Printf("Classified by rules:  %d (partial %d, unknown %d)\n",
		result.ClassifyStats.RuleClassified, result.ClassifyStats.PartialClassified, result.ClassifyStats.Unknown)
	fmt.Printf("Mapped to a rating:   %d\n", result.MapStats.Mapped)
	fmt.Printf("No label identified:  %d\n", result.MapStats.NoLabel)
	fmt.Printf("No rating for label:  %d\n", result.MapStats.NoRating)

	if result.MapStats.Mapped > 0 {
		fmt.Println("Tier breakdown:")
		for _, tier := range domain.AllTiers {
			if n := result.MapStats.ByTier[tier]; n > 0 {
				fmt.Printf("  %-8s %d\n", tier, n)
			}
		}
	}

	if len(result.MapStats.MissedKeys) > 0 {
		fmt.Println("Labels without a rating entry:")
		for key, n := range result.MapStats.MissedKeys {
			fmt.Printf("  %s (%d)\n", key, n)
		}
	}
	fmt.Println(line)
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
