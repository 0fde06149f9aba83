package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/akarpov/shortly/internal/models"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Create(ctx context.Context, shortCode, originalURL string) (*models.URL, error) {
	args := r.Called(ctx, shortCode, originalURL)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) ShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	args := r.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (r *MockURLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) RecordClick(ctx context.Context, urlID int64) error {
	args := r.Called(ctx, urlID)
	return args.Error(0)
}

func (r *MockURLRepository) CountClicks(ctx context.Context, urlID int64) (int64, error) {
	args := r.Called(ctx, urlID)
	return args.Get(0).(int64), args.Error(1)
}

func (r *MockURLRepository) RecentClicks(ctx context.Context, urlID int64, limit int) ([]time.Time, error) {
	args := r.Called(ctx, urlID, limit)
	clicks, _ := args.Get(0).([]time.Time)
	return clicks, args.Error(1)
}
