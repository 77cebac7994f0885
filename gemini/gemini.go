// Package gemini backs the mood page: given a free-text mood it asks
// Gemini for a short list of matching tracks, which the client then
// resolves and plays through the normal pipeline.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"tunely/config"
)

// ErrDisabled is returned when no Gemini API key is configured.
var ErrDisabled = errors.New("gemini is not enabled")

const model = "gemini-2.0-flash"

type Suggestion struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type Client struct {
	cfg config.GeminiConfig

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

func NewClient(cfg config.GeminiConfig) *Client {
	return &Client{cfg: cfg}
}

func (c *Client) getClient(ctx context.Context) (*genai.Client, error) {
	c.initOnce.Do(func() {
		c.client, c.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return c.client, c.initErr
}

// SuggestTracks asks for up to `limit` real tracks matching the mood.
func (c *Client) SuggestTracks(ctx context.Context, mood string, limit int) ([]Suggestion, error) {
	if !c.cfg.Enabled {
		return nil, ErrDisabled
	}
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return nil, errors.New("mood is required")
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}

	client, err := c.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	prompt := fmt.Sprintf(`Suggest %d real, existing songs that fit the mood "%s".
Only output one song per line in the exact format: Title - Artist
No numbering, no commentary, no markdown.`, limit, mood)

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		log.Errorf("gemini generate failed: %v", err)
		return nil, fmt.Errorf("generating suggestions: %w", err)
	}

	suggestions := parseSuggestions(resp.Text(), limit)
	log.WithFields(log.Fields{"module": "gemini", "mood": mood}).
		Debugf("got %d suggestions", len(suggestions))
	return suggestions, nil
}

// parseSuggestions reads "Title - Artist" lines, tolerating stray
// numbering or bullets the model sometimes adds anyway.
func parseSuggestions(text string, limit int) []Suggestion {
	suggestions := []Suggestion{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, " - ")
		if idx == -1 {
			continue
		}
		title := strings.TrimSpace(line[:idx])
		artist := strings.TrimSpace(line[idx+3:])
		if title == "" || artist == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{Title: title, Artist: artist})
		if len(suggestions) >= limit {
			break
		}
	}
	return suggestions
}
