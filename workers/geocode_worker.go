package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"nexogeo-platform/models"
	"nexogeo-platform/utils"

	"gorm.io/gorm"
)

// GeocodeClient backfills coordinates for participants who registered
// without browser geolocation. The dashboard heat map needs lat/lon; the
// form only guarantees address/city/neighborhood text.
type GeocodeClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewGeocodeClient(db *gorm.DB) *GeocodeClient {
	baseURL := os.Getenv("GEOCODE_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("GEOCODE_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("GEOCODE_SERVICE_TOKEN")

	return &GeocodeClient{
		BaseURL:    baseURL,
		Token:      token,
		DB:         db,
		HTTPClient: utils.HTTPClient,
	}
}

// Resolve geocodes one address. Returns (nil, nil, nil) when the service has
// no match — that participant is skipped, not retried forever.
func (c *GeocodeClient) Resolve(ctx context.Context, endereco, bairro, cidade string) (*float64, *float64, error) {
	u, err := url.Parse(fmt.Sprintf("%s/v1/search", c.BaseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("q", fmt.Sprintf("%s, %s, %s", endereco, bairro, cidade))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("X-Service-Token", c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to call geocode service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, nil, fmt.Errorf("geocode service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(response.Results) == 0 {
		return nil, nil, nil
	}
	return &response.Results[0].Latitude, &response.Results[0].Longitude, nil
}

// PollGeocode finds participants missing coordinates and resolves them in
// small batches, one tick at a time.
func PollGeocode(ctx context.Context, client *GeocodeClient, pollInterval time.Duration) {
	log.Println("Starting geocode backfill polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Geocode polling stopped.")
			return
		case <-ticker.C:
			var pending []models.Participant
			err := client.DB.
				Where("latitude IS NULL AND geocoded_at IS NULL AND endereco <> ''").
				Order("created_at ASC").
				Limit(25).
				Find(&pending).Error
			if err != nil {
				log.Printf("❌ Error fetching ungeocoded participants: %v", err)
				continue
			}
			if len(pending) == 0 {
				continue
			}

			log.Printf("📍 Geocoding %d participant(s)...", len(pending))
			resolved := 0
			for _, p := range pending {
				lat, lon, err := client.Resolve(ctx, p.Endereco, p.Bairro, p.Cidade)
				if err != nil {
					// Transient error — leave geocoded_at unset so the next
					// tick retries this record.
					log.Printf("❌ Geocode error for participant %s: %v", p.ID, err)
					continue
				}
				now := time.Now()
				updates := map[string]interface{}{"geocoded_at": &now}
				if lat != nil {
					updates["latitude"] = lat
					updates["longitude"] = lon
					resolved++
				}
				if err := client.DB.Model(&p).Updates(updates).Error; err != nil {
					log.Printf("❌ Failed to save coordinates for participant %s: %v", p.ID, err)
				}
			}
			if resolved > 0 {
				log.Printf("✅ Geocoded %d participant(s).", resolved)
			}
		}
	}
}
