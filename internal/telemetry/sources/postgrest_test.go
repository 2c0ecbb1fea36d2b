package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/hyacinth-monitor/internal/upstream"
)

func fastSource(t *testing.T, h http.HandlerFunc) *PostgRESTSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	src := NewPostgRESTSource(srv.Client(), srv.URL+"/", "anon-key", "")
	src.httpCfg.Backoff = upstream.BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	return src
}

func TestPostgRESTFetch(t *testing.T) {
	since := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)

	src := fastSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/gps_data", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "timestamp.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "gte.2024-03-14T08:00:00Z", r.URL.Query().Get("timestamp"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"latitude": -25.75, "longitude": 27.87, "altitude": 1210.5, "hdop": 0.9,
			 "temperature": 23.4, "ph": 7.1, "dissolvedsolids": 412, "timestamp": "2024-03-14T09:15:00+00:00", "f_port": 2},
			{"latitude": null, "longitude": null, "altitude": null, "hdop": null,
			 "temperature": null, "ph": 6.8, "dissolvedsolids": null, "timestamp": "2024-03-14T09:10:00.123456", "f_port": null},
			{"temperature": 21, "timestamp": "garbage"}
		]`))
	})

	readings, err := src.Fetch(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, readings, 3)

	assert.Equal(t, 23.4, readings[0].Temperature)
	assert.Equal(t, 2, readings[0].Port)
	assert.Equal(t, time.Date(2024, 3, 14, 9, 15, 0, 0, time.UTC), readings[0].Timestamp)

	assert.Zero(t, readings[1].Temperature)
	assert.Equal(t, 6.8, readings[1].PH)
	assert.Equal(t, 10, readings[1].Timestamp.Minute())

	assert.True(t, readings[2].Timestamp.IsZero())
	assert.Equal(t, 21.0, readings[2].Temperature)
}

func TestPostgRESTRetriesServerErrors(t *testing.T) {
	var calls int32
	src := fastSource(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	readings, err := src.Fetch(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, readings)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestPostgRESTDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	src := fastSource(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := src.Fetch(context.Background(), time.Time{})
	require.ErrorIs(t, err, upstream.ErrUnexpected)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestPostgRESTRequiresCredentials(t *testing.T) {
	src := NewPostgRESTSource(http.DefaultClient, "", "", "")
	_, err := src.Fetch(context.Background(), time.Time{})
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("2024-03-14 09:15:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 14, 9, 15, 0, 0, time.UTC), ts)

	ts, err = parseTimestamp("2024-03-14T11:15:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 9, ts.Hour())

	ts, err = parseTimestamp("")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	_, err = parseTimestamp("14/03/2024")
	assert.Error(t, err)
}
