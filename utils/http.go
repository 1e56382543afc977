package utils

import (
	"net/http"
	"time"
)

// HTTPClient is the shared client for outbound calls (geocoding backfill).
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
