package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/hyacinth-monitor/internal/common"
	"github.com/i474232898/hyacinth-monitor/internal/upstream"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const visionPrompt = `Analyze this water hyacinth image. Focus on:
1. Coverage patterns and density
2. Potential environmental impact
3. Growth predictions
4. Scientific recommendations for management
Please provide a detailed but concise analysis. End your answer with a JSON object with the keys coverage_percentage, growth_rate and water_quality_impact, each a number from 0 to 100.`

// Vision is the outcome of one vision-model call.
type Vision struct {
	Narrative          string  `json:"narrative"`
	Coverage           float64 `json:"coveragePercentage"`
	GrowthRate         float64 `json:"growthRate"`
	WaterQualityImpact float64 `json:"waterQualityImpact"`
	// Structured is false when the reply carried no parsable figures.
	Structured bool `json:"structured"`
}

var errBlocked = errors.New("response blocked")

// GeminiClient calls the generative-language generateContent endpoint.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewGeminiClient(client *http.Client, baseURL, apiKey, model string) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: upstream.HTTPClientConfig{
			Client:  client,
			Backoff: upstream.DefaultBackoff,
		},
		circuit: upstream.NewBreaker("gemini"),
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
}

func (g *GeminiClient) Analyze(ctx context.Context, image []byte, mimeType string) (Vision, error) {
	if g.apiKey == "" {
		return Vision{}, fmt.Errorf("gemini api key is not configured")
	}

	var body geminiRequest
	body.Contents = append(body.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{
		Parts: []geminiPart{
			{Text: visionPrompt},
			{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
		},
	})
	payload, err := json.Marshal(body)
	if err != nil {
		return Vision{}, err
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.apiKey)
		return req, nil
	}

	resp, err := upstream.Do(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return Vision{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Vision{}, fmt.Errorf("decode gemini response: %w", err)
	}

	if out.PromptFeedback.BlockReason != "" {
		return Vision{}, fmt.Errorf("%w: %s", errBlocked, out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return Vision{}, fmt.Errorf("no candidates")
	}
	c := out.Candidates[0]
	if common.HasAny(c.FinishReason, "SAFETY", "BLOCKLIST", "PROHIBITED") {
		return Vision{}, fmt.Errorf("%w: %s", errBlocked, c.FinishReason)
	}

	var text strings.Builder
	for _, p := range c.Content.Parts {
		text.WriteString(p.Text)
	}
	return ParseVision(text.String()), nil
}

// figures is the structured block the prompt asks for.
type figures struct {
	Coverage     json.RawMessage `json:"coverage_percentage"`
	GrowthRate   json.RawMessage `json:"growth_rate"`
	WaterQuality json.RawMessage `json:"water_quality_impact"`
}

func (f figures) present() bool {
	return f.Coverage != nil || f.GrowthRate != nil || f.WaterQuality != nil
}

// ParseVision splits a model reply into narrative text and the embedded
// figures. Figures are clamped to [0, 100]; a reply without a block keeps
// its text and reports zeros.
func ParseVision(text string) Vision {
	v := Vision{Narrative: strings.TrimSpace(text)}

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var f figures
		if err := dec.Decode(&f); err != nil || !f.present() {
			continue
		}

		v.Coverage = percent(f.Coverage)
		v.GrowthRate = percent(f.GrowthRate)
		v.WaterQualityImpact = percent(f.WaterQuality)
		v.Structured = true

		end := i + int(dec.InputOffset())
		v.Narrative = stripFence(text[:i]) + " " + strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text[end:]), "```"))
		v.Narrative = strings.TrimSpace(v.Narrative)
		break
	}
	return v
}

// stripFence drops a trailing ```json opener left in front of the block.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```json")
	s = strings.TrimSuffix(s, "```JSON")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// percent accepts a JSON number or a string such as "45%".
func percent(raw json.RawMessage) float64 {
	if raw == nil {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return common.Clamp(n, 0, 100)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return common.Clamp(n, 0, 100)
		}
	}
	return 0
}
