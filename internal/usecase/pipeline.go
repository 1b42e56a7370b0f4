package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ethicalmeat/backend/internal/domain"
)

// Pipeline sequences the batch stages: fetch, filter, classify, map. Each
// stage consumes the previous stage's output and produces augmented records;
// upstream slices are never mutated.
type Pipeline struct {
	source     domain.ProductSource
	filter     *MeatFilter
	classifier *ProductClassifier
	mapper     *RatingMapper
	store      domain.MappingStore
}

// PipelineConfig wires the pipeline stages. Source and Store are optional:
// without a source only ProcessRecords is usable, without a store runs are
// not persisted.
type PipelineConfig struct {
	Source     domain.ProductSource
	Filter     *MeatFilter
	Classifier *ProductClassifier
	Mapper     *RatingMapper
	Store      domain.MappingStore
}

// NewPipeline creates a pipeline from its stages.
func NewPipeline(config PipelineConfig) *Pipeline {
	return &Pipeline{
		source:     config.Source,
		filter:     config.Filter,
		classifier: config.Classifier,
		mapper:     config.Mapper,
		store:      config.Store,
	}
}

// RunResult carries the rated output of one pipeline run together with the
// per-stage statistics.
type RunResult struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Fetched  int                   `json:"fetched"`
	Products []domain.RatedProduct `json:"products"`

	FilterStats   FilterStats   `json:"filter_stats"`
	ClassifyStats ClassifyStats `json:"classify_stats"`
	MapStats      MapStats      `json:"map_stats"`
}

// Run fetches up to limit products from the source and processes them.
func (p *Pipeline) Run(ctx context.Context, limit int) (*RunResult, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: pipeline has no product source", domain.ErrInvalidRequest)
	}

	products, err := p.source.FetchProducts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}
	log.Printf("[PIPELINE] fetched %d products", len(products))

	return p.ProcessRecords(ctx, products)
}

// ProcessRecords runs filter, classify and map over an already-fetched batch,
// assigns a run id and persists the result when a store is configured. A
// store failure is logged and does not fail the run; the rated products are
// still returned.
func (p *Pipeline) ProcessRecords(ctx context.Context, products []domain.ProductRecord) (*RunResult, error) {
	result := &RunResult{
		RunID:     ulid.Make().String(),
		StartedAt: time.Now().UTC(),
		Fetched:   len(products),
	}

	result.FilterStats = p.filter.Stats(products)
	meat := p.filter.FilterMeat(products)
	log.Printf("[PIPELINE] %s: %d of %d products are meat", result.RunID, len(meat), len(products))

	classified, classifyStats := p.classifier.ClassifyAll(ctx, meat)
	result.ClassifyStats = classifyStats

	rated, mapStats := p.mapper.MapAll(classified)
	result.Products = rated
	result.MapStats = mapStats
	result.FinishedAt = time.Now().UTC()

	log.Printf("[PIPELINE] %s: classified %d (rules %d, partial %d, unknown %d), mapped %d / no_label %d / no_rating %d",
		result.RunID, len(classified),
		classifyStats.RuleClassified, classifyStats.PartialClassified, classifyStats.Unknown,
		mapStats.Mapped, mapStats.NoLabel, mapStats.NoRating)

	if p.store != nil {
		if err := p.store.SaveRun(ctx, result.RunID, rated); err != nil {
			log.Printf("[PIPELINE] %s: persisting run failed: %v", result.RunID, err)
		}
	}

	return result, nil
}

// ProcessOne runs a single record through filter, classifier and mapper. The
// filter verdict is advisory here: a non-meat record is still classified so
// the caller can show why nothing matched.
func (p *Pipeline) ProcessOne(ctx context.Context, product domain.ProductRecord) (domain.RatedProduct, bool) {
	isMeat := p.filter.IsMeat(product)

	result := p.classifier.Classify(ctx, product)
	classified := domain.ClassifiedProduct{
		ProductRecord:            product,
		ClassifiedAnimal:         result.Animal,
		ClassifiedLabel:          result.Label,
		ClassificationConfidence: result.Confidence,
		ClassificationReasoning:  result.Reasoning,
	}

	rated, _ := p.mapper.MapAll([]domain.ClassifiedProduct{classified})
	return rated[0], isMeat
}
