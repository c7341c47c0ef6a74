// Package stats records endpoint hits and aggregates them into view counts.
package stats

import (
	"context"
	"time"

	"example.com/ewm/internal/datetime"
)

// Hit is one recorded access to a URI. Hits are append-only.
type Hit struct {
	ID        int64         `json:"id,omitempty"`
	App       string        `json:"app" validate:"required,max=50"`
	URI       string        `json:"uri" validate:"required,max=255"`
	IP        string        `json:"ip" validate:"required,ip"`
	Timestamp datetime.Time `json:"timestamp" validate:"required"`
}

// ViewStats is the hit count of one app and uri pair.
type ViewStats struct {
	App  string `json:"app" db:"app"`
	URI  string `json:"uri" db:"uri"`
	Hits int64  `json:"hits" db:"hits"`
}

// Query selects hits with Start <= timestamp <= End. An empty URIs matches
// every uri. Unique counts distinct IPs instead of hits.
type Query struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}

type Store interface {
	SaveHit(ctx context.Context, h Hit) (Hit, error)
	// Stats returns counts grouped by app and uri, most hits first.
	Stats(ctx context.Context, q Query) ([]ViewStats, error)
	Ready(ctx context.Context) error
}
