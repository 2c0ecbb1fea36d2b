package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"golang.org/x/image/draw"

	"github.com/i474232898/hyacinth-monitor/internal/upstream"
)

// Input geometry of the segmentation model: one 256x256 image with two
// channels scaled to [0, 1].
const (
	InputSize     = 256
	InputChannels = 2
)

// Tensor is a single [height][width][channel] model input.
type Tensor [][][]float32

// Preprocess decodes a PNG or JPEG, resizes it bilinearly to the model input
// size and keeps the first two channels.
func Preprocess(raw []byte) (Tensor, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	t := make(Tensor, InputSize)
	for y := 0; y < InputSize; y++ {
		t[y] = make([][]float32, InputSize)
		for x := 0; x < InputSize; x++ {
			off := dst.PixOffset(x, y)
			px := make([]float32, InputChannels)
			for c := 0; c < InputChannels; c++ {
				px[c] = float32(dst.Pix[off+c]) / 255
			}
			t[y][x] = px
		}
	}
	return t, nil
}

// ModelOutput is the decoded response of the model runtime.
type ModelOutput struct {
	Coverage   float64   `json:"coverage"`
	Confidence float64   `json:"confidence"`
	Raw        []float64 `json:"-"`
	Size       int       `json:"outputSize"`
}

// ModelClient calls a TensorFlow-Serving style REST predict endpoint.
type ModelClient struct {
	baseURL string
	model   string
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewModelClient(client *http.Client, baseURL, model string) *ModelClient {
	return &ModelClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpCfg: upstream.HTTPClientConfig{
			Client:  client,
			Backoff: upstream.DefaultBackoff,
		},
		circuit: upstream.NewBreaker("model"),
	}
}

func (m *ModelClient) Predict(ctx context.Context, raw []byte) (ModelOutput, error) {
	tensor, err := Preprocess(raw)
	if err != nil {
		return ModelOutput{}, err
	}

	payload, err := json.Marshal(map[string]any{"instances": []Tensor{tensor}})
	if err != nil {
		return ModelOutput{}, err
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/v1/models/%s:predict", m.baseURL, m.model)
		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := upstream.Do(ctx, m.httpCfg, m.circuit, buildRequest)
	if err != nil {
		return ModelOutput{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Predictions []any `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ModelOutput{}, fmt.Errorf("decode prediction: %w", err)
	}

	values := flatten(out.Predictions, nil)
	if len(values) == 0 {
		return ModelOutput{}, fmt.Errorf("empty prediction")
	}

	return ModelOutput{
		Coverage:   values[0] * 100,
		Confidence: values[0] * 100,
		Raw:        values,
		Size:       len(values),
	}, nil
}

// flatten walks arbitrarily nested JSON arrays of numbers.
func flatten(v any, acc []float64) []float64 {
	switch t := v.(type) {
	case float64:
		return append(acc, t)
	case []any:
		for _, e := range t {
			acc = flatten(e, acc)
		}
	}
	return acc
}
