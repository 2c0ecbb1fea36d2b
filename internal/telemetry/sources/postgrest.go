package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/hyacinth-monitor/internal/telemetry"
	"github.com/i474232898/hyacinth-monitor/internal/upstream"
)

// PostgRESTSource implements telemetry.Source against the hosted database's
// REST interface.
type PostgRESTSource struct {
	name    string
	baseURL string
	apiKey  string
	table   string
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewPostgRESTSource(client *http.Client, baseURL, apiKey, table string) *PostgRESTSource {
	if table == "" {
		table = DefaultTable
	}
	return &PostgRESTSource{
		name:    "postgrest",
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		table:   table,
		httpCfg: upstream.HTTPClientConfig{
			Client:  client,
			Backoff: upstream.DefaultBackoff,
		},
		circuit: upstream.NewBreaker("postgrest"),
	}
}

func (p *PostgRESTSource) Name() string {
	return p.name
}

// row mirrors the table columns; nullable numerics decode to nil.
type row struct {
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Altitude        *float64 `json:"altitude"`
	HDOP            *float64 `json:"hdop"`
	Temperature     *float64 `json:"temperature"`
	PH              *float64 `json:"ph"`
	DissolvedSolids *float64 `json:"dissolvedsolids"`
	Timestamp       string   `json:"timestamp"`
	Port            *int     `json:"f_port"`
}

func (p *PostgRESTSource) Fetch(ctx context.Context, since time.Time) ([]telemetry.Reading, error) {
	if p.baseURL == "" || p.apiKey == "" {
		return nil, fmt.Errorf("postgrest url and api key must be configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("select", "*")
		values.Set("order", "timestamp.desc")
		if !since.IsZero() {
			values.Set("timestamp", "gte."+since.UTC().Format(time.RFC3339))
		}

		u := fmt.Sprintf("%s/rest/v1/%s?%s", p.baseURL, url.PathEscape(p.table), values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("apikey", p.apiKey)
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rows []row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", p.table, err)
	}

	readings := make([]telemetry.Reading, 0, len(rows))
	for _, r := range rows {
		ts, err := parseTimestamp(r.Timestamp)
		if err != nil {
			// keep the row; the table formatter skips undated readings
			log.Printf("WARN: %s: %v", p.name, err)
		}
		reading := telemetry.Reading{
			Latitude:        float(r.Latitude),
			Longitude:       float(r.Longitude),
			Altitude:        float(r.Altitude),
			HDOP:            float(r.HDOP),
			Temperature:     float(r.Temperature),
			PH:              float(r.PH),
			DissolvedSolids: float(r.DissolvedSolids),
			Timestamp:       ts,
		}
		if r.Port != nil {
			reading.Port = *r.Port
		}
		readings = append(readings, reading)
	}
	return readings, nil
}
