package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/akarpov/shortly/internal/database"
	"github.com/akarpov/shortly/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// codeAlphabet is the 62-symbol alphabet generated short codes are drawn from.
const codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// recentClicksLimit caps how many recent click timestamps the stats view returns.
const recentClicksLimit = 5

var customCodeRegexp = regexp.MustCompile(`^[A-Za-z0-9]{3,10}$`)

var (
	// ErrInvalidURL is returned when the submitted original URL is not a well-formed URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidCustomCode is returned when a custom short code violates the format rule.
	ErrInvalidCustomCode = errors.New("custom short code must be alphanumeric and between 3 to 10 characters")
	// ErrCustomCodeTaken is returned when the requested custom short code is already in use.
	ErrCustomCodeTaken = errors.New("custom short code already in use")
	// ErrCodeSpaceExhausted is returned when the maximum number of attempts
	// for generating a unique short code is exceeded.
	ErrCodeSpaceExhausted = errors.New("maximum attempts exceeded for generating unique short code")
)

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL into the repository.
	// It returns database.ErrShortCodeExists if the short code is already taken.
	Create(ctx context.Context, shortCode, originalURL string) (*models.URL, error)

	// ShortCodeExists reports whether a URL record with the given short code exists.
	ShortCodeExists(ctx context.Context, shortCode string) (bool, error)

	// GetByShortCode retrieves a URL by its short code.
	// It returns database.ErrURLNotFound if no record matches.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// RecordClick appends a click event for the URL with the given id.
	RecordClick(ctx context.Context, urlID int64) error

	// CountClicks returns the total number of click events for the URL.
	CountClicks(ctx context.Context, urlID int64) (int64, error)

	// RecentClicks returns up to limit click timestamps, newest first.
	RecentClicks(ctx context.Context, urlID int64, limit int) ([]time.Time, error)
}

// URLService provides the URL shortening, redirect and statistics operations.
type URLService struct {
	repo            URLRepository
	validate        *validator.Validate
	shortCodeLength int
	maxCodeAttempts int
}

// NewURLService creates a new URLService with the given repository,
// generated-code length and uniqueness retry bound.
func NewURLService(repo URLRepository, shortCodeLength, maxCodeAttempts int) *URLService {
	return &URLService{
		repo:            repo,
		validate:        validator.New(),
		shortCodeLength: shortCodeLength,
		maxCodeAttempts: maxCodeAttempts,
	}
}

// ShortenURL validates the original URL and either claims the user-supplied
// custom code or allocates a generated one, then stores the URL record.
//
// Both the custom and the generated path rely on the unique constraint on
// short_code: a concurrent claim of the same code between the availability
// check and the insert surfaces as database.ErrShortCodeExists from Create,
// never as a duplicate row.
func (s *URLService) ShortenURL(ctx context.Context, originalURL, customCode string) (*models.URL, error) {
	const op = "service.URLService.ShortenURL"

	if err := s.validate.Var(originalURL, "required,url"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	if customCode != "" {
		if !customCodeRegexp.MatchString(customCode) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCustomCode)
		}

		url, err := s.repo.Create(ctx, customCode, originalURL)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				return nil, fmt.Errorf("%s: %w", op, ErrCustomCodeTaken)
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	for i := 0; i < s.maxCodeAttempts; i++ {
		shortCode, err := gonanoid.Generate(codeAlphabet, s.shortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		exists, err := s.repo.ShortCodeExists(ctx, shortCode)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to check short code: %w", op, err)
		}
		if exists {
			continue
		}

		url, err := s.repo.Create(ctx, shortCode, originalURL)
		if err != nil {
			// Lost the race for this code; try another one.
			if errors.Is(err, database.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrCodeSpaceExhausted)
}

// ResolveShortCode retrieves the URL record for the short code and records
// a click event for it. It returns database.ErrURLNotFound for unknown codes,
// in which case no click is recorded.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.ResolveShortCode"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if err := s.repo.RecordClick(ctx, url.ID); err != nil {
		return nil, fmt.Errorf("%s: failed to record click: %w", op, err)
	}

	return url, nil
}

// GetURLStats retrieves the URL record for the short code together with its
// total click count and the most recent click timestamps, newest first.
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*models.URLStats, error) {
	const op = "service.URLService.GetURLStats"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	total, err := s.repo.CountClicks(ctx, url.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count clicks: %w", op, err)
	}

	recent, err := s.repo.RecentClicks(ctx, url.ID, recentClicksLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get recent clicks: %w", op, err)
	}

	return &models.URLStats{
		URL:          *url,
		TotalClicks:  total,
		RecentClicks: recent,
	}, nil
}
