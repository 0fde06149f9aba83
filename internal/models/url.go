package models

import "time"

// URL represents a shortened URL record.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortCode is the short code associated with the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
}

// URLStats combines a URL record with its aggregated click statistics.
type URLStats struct {
	URL
	// TotalClicks is the number of click events recorded for the URL.
	TotalClicks int64
	// RecentClicks holds the timestamps of the most recent clicks, newest first.
	RecentClicks []time.Time
}
