package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ethicalmeat/backend/config"
	"github.com/ethicalmeat/backend/internal/domain"
	"github.com/ethicalmeat/backend/internal/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeStore serves a fixed set of barcode mappings.
type fakeStore struct {
	products map[string]*domain.RatedProduct
	err      error
}

func (f *fakeStore) SaveRun(ctx context.Context, runID string, products []domain.RatedProduct) error {
	return nil
}

func (f *fakeStore) LookupBarcode(ctx context.Context, barcode string) (*domain.RatedProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.products[barcode]; ok {
		return p, nil
	}
	return nil, domain.ErrRatingNotFound
}

func (f *fakeStore) Close() error { return nil }

// fakeSource returns a fixed batch regardless of limit.
type fakeSource struct {
	products []domain.ProductRecord
}

func (f *fakeSource) FetchProducts(ctx context.Context, limit int) ([]domain.ProductRecord, error) {
	return f.products, nil
}

func testPipeline(source domain.ProductSource) *usecase.Pipeline {
	return usecase.NewPipeline(usecase.PipelineConfig{
		Source:     source,
		Filter:     usecase.NewMeatFilter(),
		Classifier: usecase.NewProductClassifier(usecase.ClassifierConfig{UseRules: true}),
		Mapper: usecase.NewRatingMapper([]domain.RatingRow{
			{Label: "NATURA-BEEF D", Animal: "Rindfleisch", Tier: domain.TierTop},
		}),
	})
}

func setupTestRouter(store domain.MappingStore) *gin.Engine {
	return routerFor(testPipeline(nil), store)
}

func routerFor(pipeline *usecase.Pipeline, store domain.MappingStore) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
	}

	handler := NewHandler(pipeline, store)
	return SetupRouter(cfg, handler)
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", body["status"])
	}
}

func TestClassify(t *testing.T) {
	router := setupTestRouter(nil)

	t.Run("classifies and maps a meat product", func(t *testing.T) {
		payload := `{
			"barcode": "7610000000001",
			"name": "Natura-Beef Entrecôte",
			"ingredients_text": "Rindfleisch"
		}`

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/classify", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
		}

		var body struct {
			IsMeat  bool                `json:"is_meat"`
			Product domain.RatedProduct `json:"product"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}

		if !body.IsMeat {
			t.Error("is_meat = false, want true")
		}
		if body.Product.ClassifiedAnimal != domain.AnimalRindfleisch {
			t.Errorf("classified_animal = %q, want rindfleisch", body.Product.ClassifiedAnimal)
		}
		if body.Product.EMHMappingStatus != domain.StatusMapped {
			t.Errorf("emh_mapping_status = %q, want mapped", body.Product.EMHMappingStatus)
		}
		if body.Product.EMHTier == nil || *body.Product.EMHTier != domain.TierTop {
			t.Errorf("emh_tier = %v, want TOP", body.Product.EMHTier)
		}
	})

	t.Run("rejects request without name", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/classify", strings.NewReader(`{"barcode": "1"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/classify", strings.NewReader(`{"name":`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestRunPipeline(t *testing.T) {
	source := &fakeSource{products: []domain.ProductRecord{
		{Barcode: "1", Name: "Natura-Beef Entrecôte", IngredientsText: "Rindfleisch"},
		{Barcode: "2", Name: "Apfelsaft"},
	}}
	router := routerFor(testPipeline(source), nil)

	t.Run("runs the batch and reports stats", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/pipeline/run?limit=10", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
		}

		var body struct {
			RunID    string `json:"run_id"`
			Fetched  int    `json:"fetched"`
			MapStats struct {
				Mapped int `json:"mapped"`
			} `json:"map_stats"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if body.RunID == "" {
			t.Error("run_id is empty")
		}
		if body.Fetched != 2 {
			t.Errorf("fetched = %d, want 2", body.Fetched)
		}
		if body.MapStats.Mapped != 1 {
			t.Errorf("map_stats.mapped = %d, want 1", body.MapStats.Mapped)
		}
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/pipeline/run?limit=abc", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("no source reports 503", func(t *testing.T) {
		router := setupTestRouter(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/pipeline/run", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
	})
}

func TestRatingByBarcode(t *testing.T) {
	tier := domain.TierOK
	store := &fakeStore{products: map[string]*domain.RatedProduct{
		"7610000000001": {
			ClassifiedProduct: domain.ClassifiedProduct{
				ProductRecord:   domain.ProductRecord{Barcode: "7610000000001", Name: "Poulet"},
				ClassifiedLabel: "OPTIGAL D",
			},
			EMHMappingStatus: domain.StatusMapped,
			EMHTier:          &tier,
		},
	}}
	router := setupTestRouter(store)

	t.Run("returns stored mapping", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/ratings/7610000000001", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var product domain.RatedProduct
		if err := json.Unmarshal(w.Body.Bytes(), &product); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if product.EMHTier == nil || *product.EMHTier != domain.TierOK {
			t.Errorf("emh_tier = %v, want OK", product.EMHTier)
		}
	})

	t.Run("unknown barcode reports 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/ratings/0000000000000", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("missing store reports 404", func(t *testing.T) {
		router := setupTestRouter(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/ratings/7610000000001", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}
