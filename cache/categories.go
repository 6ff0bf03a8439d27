package cache

import "time"

// Category names one independently configured region of the cache.
// Each category has its own TTL and size cap.
type Category string

const (
	// CategoryChunks memoizes chunking passes keyed by content fingerprint.
	CategoryChunks Category = "chunks"
	// CategoryScores memoizes scoring passes keyed by (chunks, task).
	CategoryScores Category = "scores"
	// CategoryContext memoizes assembled single-task context results.
	CategoryContext Category = "context"
	// CategoryRouting memoizes multi-step routing plans.
	CategoryRouting Category = "routing"
	// CategoryAnalysis memoizes long-lived content analyses.
	CategoryAnalysis Category = "analysis"
)

// Profile is the TTL and size configuration of one category.
type Profile struct {
	TTL        time.Duration `yaml:"ttl" json:"ttl"`
	MaxEntries int           `yaml:"max_entries" json:"max_entries"`
}

// DefaultProfiles returns the product's category registry. TTLs range
// from 30 minutes to 7 days, size caps from 100 to 1000 entries.
func DefaultProfiles() map[Category]Profile {
	return map[Category]Profile{
		CategoryChunks:   {TTL: 1 * time.Hour, MaxEntries: 500},
		CategoryScores:   {TTL: 30 * time.Minute, MaxEntries: 1000},
		CategoryContext:  {TTL: 2 * time.Hour, MaxEntries: 200},
		CategoryRouting:  {TTL: 30 * time.Minute, MaxEntries: 300},
		CategoryAnalysis: {TTL: 7 * 24 * time.Hour, MaxEntries: 100},
	}
}

// defaultProfile covers categories the registry does not know about.
var defaultProfile = Profile{TTL: 30 * time.Minute, MaxEntries: 500}
