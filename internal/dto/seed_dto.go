package dto

import "time"

// SeedResult reports the outcome of a seeding request.
type SeedResult struct {
	Seeded    bool  `json:"seeded"`
	Skipped   bool  `json:"skipped"`
	NodeCount int64 `json:"node_count"`
}

// SeedStatusResponse reports whether the graph holds the seed dataset.
type SeedStatusResponse struct {
	Seeded    bool      `json:"seeded"`
	NodeCount int64     `json:"node_count"`
	CheckedAt time.Time `json:"checked_at"`
	CacheHit  bool      `json:"cache_hit"`
}
