package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solidPNG encodes a w x h image filled with c.
func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocessShapeAndScale(t *testing.T) {
	raw := solidPNG(t, 40, 30, color.RGBA{R: 255, G: 51, B: 0, A: 255})

	tensor, err := Preprocess(raw)
	require.NoError(t, err)
	require.Len(t, tensor, InputSize)
	require.Len(t, tensor[0], InputSize)
	require.Len(t, tensor[0][0], InputChannels)

	px := tensor[128][128]
	assert.InDelta(t, 1.0, px[0], 0.01)
	assert.InDelta(t, 0.2, px[1], 0.01)
}

func TestPreprocessRejectsGarbage(t *testing.T) {
	_, err := Preprocess([]byte("not an image"))
	assert.Error(t, err)
}

func TestModelPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/hyacinth:predict", r.URL.Path)

		var body struct {
			Instances [][][][]float32 `json:"instances"`
		}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) && assert.Len(t, body.Instances, 1) {
			assert.Len(t, body.Instances[0], InputSize)
		}

		_, _ = w.Write([]byte(`{"predictions": [[0.42, 0.58]]}`))
	}))
	defer srv.Close()

	m := NewModelClient(srv.Client(), srv.URL, "hyacinth")
	m.httpCfg.Backoff = quickBackoff

	out, err := m.Predict(context.Background(), solidPNG(t, 8, 8, color.White))
	require.NoError(t, err)
	assert.InDelta(t, 42, out.Coverage, 1e-9)
	assert.Equal(t, 2, out.Size)
}

func TestModelPredictEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions": []}`))
	}))
	defer srv.Close()

	m := NewModelClient(srv.Client(), srv.URL, "hyacinth")
	m.httpCfg.Backoff = quickBackoff

	_, err := m.Predict(context.Background(), solidPNG(t, 8, 8, color.White))
	assert.Error(t, err)
}
