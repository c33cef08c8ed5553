package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// maxParseAttempts bounds how often a malformed model reply is retried.
const maxParseAttempts = 3

const translationPromptTemplate = `Translate each string in the JSON array given by the user from %s to %s.

Output ONLY valid JSON of the form {"translations": ["...", "..."]}. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }.

Rules:
- Return exactly %d strings, in the same order as the input.
- Keep HTML tags, Markdown, placeholders such as :name or {name}, URLs and numbers unchanged.
- Do not translate proper nouns or brand names.
- If a string is already in %s, return it unchanged.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

// TranslationPrompt builds the system prompt for translating n strings.
func TranslationPrompt(from, to string, n int) string {
	return fmt.Sprintf(translationPromptTemplate, LanguageName(from), LanguageName(to), n, LanguageName(to))
}

// CompletionFunc sends a system prompt and a user message to a chat model and
// returns the raw text reply.
type CompletionFunc func(ctx context.Context, system, user string) (string, error)

// translationReply is the JSON shape requested from the model.
type translationReply struct {
	Translations []string `json:"translations"`
}

// ParseTranslations extracts n translations from a model reply. Code fences
// and common JSON mistakes are repaired first; a bare JSON array is accepted too.
func ParseTranslations(reply string, n int) ([]string, error) {
	text := repairJSON(stripCodeFences(reply))

	var out []string
	var wrapped translationReply
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && wrapped.Translations != nil {
		out = wrapped.Translations
	} else if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(out) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(out), n)
	}
	return out, nil
}

// TranslateWithCompletion translates texts through a chat model. Malformed or
// short replies are retried; transport errors are returned immediately.
func TranslateWithCompletion(ctx context.Context, complete CompletionFunc, texts []string, from, to string, logger *slog.Logger) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, err
	}
	system := TranslationPrompt(from, to, len(texts))

	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		reply, err := complete(ctx, system, string(payload))
		if err != nil {
			logger.Error("failed to generate translation", "attempt", attempt+1, "err", err)
			return nil, err
		}
		out, err := ParseTranslations(reply, len(texts))
		if err != nil {
			lastErr = err
			logger.Warn("error parsing translation response",
				"attempt", attempt+1,
				"response", reply,
				"err", err)
			continue
		}
		for i := range out {
			out[i] = strings.TrimSpace(out[i])
		}
		return out, nil
	}

	logger.Error("failed to parse translation response after retries", "err", lastErr)
	return nil, lastErr
}
