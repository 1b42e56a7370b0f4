package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProductNotFound is returned when a barcode has no known product
	ErrProductNotFound = errors.New("product not found")

	// ErrRatingNotFound is returned when no welfare rating exists for a barcode
	ErrRatingNotFound = errors.New("rating not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrFoodRepoAPIFailure is returned when a FoodRepo API request fails
	ErrFoodRepoAPIFailure = errors.New("foodrepo API request failed")

	// ErrOpenFoodFactsFailure is returned when an Open Food Facts request fails
	ErrOpenFoodFactsFailure = errors.New("open food facts request failed")

	// ErrOracleUnavailable is returned when the classification oracle cannot
	// be reached or returns no usable response
	ErrOracleUnavailable = errors.New("classification oracle unavailable")
)
