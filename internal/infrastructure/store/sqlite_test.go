package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethicalmeat/backend/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "mappings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ratedProduct(barcode string, status domain.MappingStatus) domain.RatedProduct {
	p := domain.RatedProduct{
		ClassifiedProduct: domain.ClassifiedProduct{
			ProductRecord: domain.ProductRecord{
				Barcode: barcode,
				Name:    "Product " + barcode,
				Brands:  "Coop",
			},
			ClassifiedAnimal:         domain.AnimalRindfleisch,
			ClassifiedLabel:          "NATURA-BEEF D",
			ClassificationConfidence: 0.9,
			ClassificationReasoning:  "classified using pattern rules",
		},
		EMHMappingStatus: status,
	}
	if status == domain.StatusMapped {
		tier := domain.TierTop
		p.EMHTier = &tier
		p.EMHLabel = "NATURA-BEEF D"
		p.EMHAnimal = domain.AnimalRindfleisch
	}
	return p
}

func TestSaveRunAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	steps := 3
	mapped := ratedProduct("7610000000001", domain.StatusMapped)
	unrated := ratedProduct("7610000000002", domain.StatusNoRating)
	unrated.EMHStepsToGo = nil

	withSteps := ratedProduct("7610000000003", domain.StatusMapped)
	tier := domain.TierUncool
	withSteps.EMHTier = &tier
	withSteps.EMHStepsToGo = &steps

	require.NoError(t, s.SaveRun(ctx, "run-1", []domain.RatedProduct{mapped, unrated, withSteps}))

	t.Run("mapped product round-trips", func(t *testing.T) {
		got, err := s.LookupBarcode(ctx, "7610000000001")
		require.NoError(t, err)
		assert.Equal(t, "Product 7610000000001", got.Name)
		assert.Equal(t, domain.StatusMapped, got.EMHMappingStatus)
		require.NotNil(t, got.EMHTier)
		assert.Equal(t, domain.TierTop, *got.EMHTier)
		assert.Nil(t, got.EMHStepsToGo)
		assert.Equal(t, domain.Label("NATURA-BEEF D"), got.EMHLabel)
	})

	t.Run("unrated product keeps nil rating fields", func(t *testing.T) {
		got, err := s.LookupBarcode(ctx, "7610000000002")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusNoRating, got.EMHMappingStatus)
		assert.Nil(t, got.EMHTier)
		assert.Nil(t, got.EMHStepsToGo)
	})

	t.Run("steps to go round-trips", func(t *testing.T) {
		got, err := s.LookupBarcode(ctx, "7610000000003")
		require.NoError(t, err)
		require.NotNil(t, got.EMHStepsToGo)
		assert.Equal(t, 3, *got.EMHStepsToGo)
	})
}

func TestLookupBarcode_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LookupBarcode(context.Background(), "0000000000000")
	assert.ErrorIs(t, err, domain.ErrRatingNotFound)
}

func TestLookupBarcode_LatestRunWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := ratedProduct("7610000000001", domain.StatusNoRating)
	require.NoError(t, s.SaveRun(ctx, "run-1", []domain.RatedProduct{first}))

	second := ratedProduct("7610000000001", domain.StatusMapped)
	require.NoError(t, s.SaveRun(ctx, "run-2", []domain.RatedProduct{second}))

	got, err := s.LookupBarcode(ctx, "7610000000001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusMapped, got.EMHMappingStatus)
}

func TestRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "run-a", nil))
	require.NoError(t, s.SaveRun(ctx, "run-b", nil))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
