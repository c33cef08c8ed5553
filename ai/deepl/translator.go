// Package deepl implements ai.Translator with the DeepL REST API.
package deepl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/enricher/ai"
)

const (
	proURL  = "https://api.deepl.com"
	freeURL = "https://api-free.deepl.com"
)

// Translator implements ai.Translator using DeepL.
type Translator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// newTranslator is an internal constructor that returns the concrete type.
func newTranslator(config *ai.Config) (*Translator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := config.Settings(ai.ProviderDeepL)
	if s.APIKey == "" {
		return nil, fmt.Errorf("deepl: %w", ai.ErrMissingAPIKey)
	}
	baseURL := s.URL
	if baseURL == "" {
		baseURL = endpointFor(s.APIKey)
	}
	return &Translator{
		baseURL:    baseURL,
		apiKey:     s.APIKey,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		logger:     slog.Default().With("component", "deepl-translator"),
	}, nil
}

// NewTranslator creates a DeepL translator. Keys ending in ":fx" use the free API.
//
// Returns ai.Translator interface to enforce abstraction.
func NewTranslator(config *ai.Config) (ai.Translator, error) {
	return newTranslator(config)
}

// endpointFor picks the API host for a key.
func endpointFor(apiKey string) string {
	if strings.HasSuffix(apiKey, ":fx") {
		return freeURL
	}
	return proURL
}

// sourceLang converts a locale to a DeepL source language code.
func sourceLang(locale string) string {
	base, _, _ := strings.Cut(strings.ReplaceAll(locale, "-", "_"), "_")
	return strings.ToUpper(base)
}

// targetLang converts a locale to a DeepL target language code. DeepL
// requires a variant for English and Portuguese targets.
func targetLang(locale string) string {
	base, region, _ := strings.Cut(strings.ReplaceAll(locale, "-", "_"), "_")
	base = strings.ToUpper(base)
	region = strings.ToUpper(region)
	switch base {
	case "EN":
		if region == "GB" {
			return "EN-GB"
		}
		return "EN-US"
	case "PT":
		if region == "BR" {
			return "PT-BR"
		}
		return "PT-PT"
	case "ZH":
		if region == "TW" || region == "HANT" {
			return "ZH-HANT"
		}
		return "ZH"
	}
	return base
}

type translateRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
}

type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// Translate translates a single text.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	out, err := t.TranslateBatch(ctx, []string{text}, from, to)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// TranslateBatch translates texts in one request.
func (t *Translator) TranslateBatch(ctx context.Context, texts []string, from, to string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	t.logger.Debug("translating texts", "count", len(texts), "from", from, "to", to)

	body, err := json.Marshal(translateRequest{
		Text:       texts,
		SourceLang: sourceLang(from),
		TargetLang: targetLang(to),
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v2/translate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+t.apiKey)

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Error("deepl request failed", "err", err)
		return nil, fmt.Errorf("deepl request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		t.logger.Error("deepl returned error", "status", resp.StatusCode, "body", string(msg))
		return nil, fmt.Errorf("deepl returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var parsed translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ai.ErrCountMismatch, len(parsed.Translations), len(texts))
	}

	out := make([]string, len(parsed.Translations))
	for i, tr := range parsed.Translations {
		out[i] = tr.Text
	}
	t.logger.Debug("translated texts", "count", len(out), "elapsed", time.Since(start))
	return out, nil
}
