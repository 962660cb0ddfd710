// Package analysis calls the narrative-analysis model. Every failure degrades
// to a fixed neutral payload; callers never see an error.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"Sentinels/internal/model"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 20 * time.Second
)

// Analyst is the narrative-analysis client.
type Analyst struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// NewAnalyst creates an analyst with optional proxy support. Empty fields pick defaults.
func NewAnalyst(apiKey, modelName, baseURL, proxyURL string, timeout time.Duration) *Analyst {
	if modelName == "" {
		modelName = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Analyst{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: baseURL,
		Timeout: timeout,
		Client:  &http.Client{Transport: transport},
	}
}

// Analyze asks the model for a narrative read of the market.
func (a *Analyst) Analyze(ctx context.Context, assets []model.AssetTelemetry, s model.MarketSentiment) model.AnalysisResult {
	if a.APIKey == "" {
		return MissingKeyFallback()
	}
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	res, err := a.generate(ctx, BuildPrompt(assets, s))
	if err != nil {
		log.Error().Err(err).Str("model", a.Model).Msg("AI analysis failed")
		return UnavailableFallback()
	}
	return res
}

var errEmptyResponse = errors.New("empty response from model")

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema"`
}

type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Items      *schema            `json:"items,omitempty"`
	Enum       []string           `json:"enum,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func str() *schema { return &schema{Type: "STRING"} }

// responseSchema mirrors model.AnalysisResult.
var responseSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"summary":  str(),
		"keyRisks": {Type: "ARRAY", Items: str()},
		"outlook":  {Type: "STRING", Enum: []string{"Bullish", "Bearish", "Neutral"}},
		"topTradeSetups": {Type: "ARRAY", Items: &schema{
			Type: "OBJECT",
			Properties: map[string]*schema{
				"coin":      str(),
				"direction": {Type: "STRING", Enum: []string{"LONG", "SHORT"}},
				"entry":     str(),
				"target":    str(),
				"stopLoss":  str(),
				"rationale": str(),
			},
		}},
	},
}

func (a *Analyst) generate(ctx context.Context, prompt string) (model.AnalysisResult, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
		},
	})
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", a.BaseURL, url.PathEscape(a.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return model.AnalysisResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.APIKey)

	resp, err := a.Client.Do(req)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.AnalysisResult{}, fmt.Errorf("model API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 || gr.Candidates[0].Content.Parts[0].Text == "" {
		return model.AnalysisResult{}, errEmptyResponse
	}
	return ParseResult(gr.Candidates[0].Content.Parts[0].Text)
}

// ParseResult decodes the model's JSON text and rejects outlooks outside the enum.
func ParseResult(text string) (model.AnalysisResult, error) {
	var res model.AnalysisResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("decode analysis: %w", err)
	}
	switch res.Outlook {
	case model.OutlookBullish, model.OutlookBearish, model.OutlookNeutral:
	default:
		return model.AnalysisResult{}, fmt.Errorf("unknown outlook %q", res.Outlook)
	}
	if res.KeyRisks == nil {
		res.KeyRisks = []string{}
	}
	if res.TopTradeSetups == nil {
		res.TopTradeSetups = []model.TradeSetup{}
	}
	res.Fallback = false
	return res, nil
}
