package model

import (
	"encoding/json"
	"time"
)

// CachedSearchResult is a stored provider response keyed by the exact
// (Location, Movie) pair. Payload is the full raw JSON document.
type CachedSearchResult struct {
	Location  string          // serpapi_cache.location
	Movie     string          // serpapi_cache.movie
	Payload   json.RawMessage // serpapi_cache.response_data
	ExpiresAt time.Time       // serpapi_cache.expires_at
	CreatedAt time.Time       // serpapi_cache.created_at
}
