package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/ethicalmeat/backend/internal/infrastructure/emh"
)

// Harvests the welfare rating table from the rating site and writes it as a
// CSV usable by the pipeline and the server.
func main() {
	baseURL := flag.String("base-url", "https://essenmitherz.ch", "rating site base URL")
	cacheDir := flag.String("cache-dir", "data/html_cache", "directory for cached HTML pages")
	out := flag.String("out", "emh_ratings.csv", "output CSV path")
	flag.Parse()

	scraper := emh.NewScraper(*baseURL, *cacheDir)

	rows, err := scraper.HarvestAll(context.Background())
	if err != nil {
		log.Fatalf("Harvest failed: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("Harvest produced no rows, not overwriting %s", *out)
	}

	if err := emh.WriteRatings(*out, rows); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	log.Printf("Wrote %d rating rows to %s", len(rows), *out)
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
