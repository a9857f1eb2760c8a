// Package lyrics turns a mantra into a song title and lyrics, either by
// asking an OpenAI-compatible model to rewrite it for a genre or by
// reshaping the user's literal words into a verse/chorus structure.
package lyrics

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"mantrafm/logger"

	openai "github.com/sashabaranov/go-openai"
)

// Config configures the lyric generation client.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	LyricsTokens int
	TitleTokens  int
}

// Client generates titles and lyrics from mantras.
type Client struct {
	api          *openai.Client
	model        string
	lyricsTokens int
	titleTokens  int
}

// NewClient creates a lyric generation client.
func NewClient(cfg *Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	lyricsTokens := cfg.LyricsTokens
	if lyricsTokens == 0 {
		lyricsTokens = 1000
	}
	titleTokens := cfg.TitleTokens
	if titleTokens == 0 {
		titleTokens = 50
	}

	return &Client{
		api:          openai.NewClientWithConfig(apiCfg),
		model:        model,
		lyricsTokens: lyricsTokens,
		titleTokens:  titleTokens,
	}
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// FormatExactLyrics reshapes the mantra into a fixed
// Verse/Chorus/Verse/Chorus structure without changing a word. The verse
// and the chorus are the same text: the joined sentences of the mantra.
// Downstream line timing relies on this exact repetition pattern.
func FormatExactLyrics(mantra string) string {
	parts := sentenceSplit.Split(mantra, -1)
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			lines = append(lines, part)
		}
	}
	if len(lines) == 0 {
		return mantra
	}

	verse := strings.Join(lines, "\n")
	return fmt.Sprintf("[Verse]\n%s\n\n[Chorus]\n%s\n\n[Verse]\n%s\n\n[Chorus]\n%s", verse, verse, verse, verse)
}

// FallbackTitle derives a deterministic local title from the mantra's
// first few words, for when the model is unavailable or returns nothing.
func FallbackTitle(mantra string) string {
	words := strings.Fields(mantra)
	if len(words) > 4 {
		words = words[:4]
	}
	title := strings.Join(words, " ")
	if title == "" {
		title = "Mantra Song"
	}
	return title
}

// GenerateLyrics produces song lyrics for the mantra. In exact mode no
// model call is made; the mantra's literal words are reshaped locally.
// In transform mode an empty model response is an error: there is no safe
// fallback text for lyrics.
func (c *Client) GenerateLyrics(ctx context.Context, mantra, genre string, useExactLyrics bool) (string, error) {
	if useExactLyrics {
		return FormatExactLyrics(mantra), nil
	}

	logger.Debug("[Lyrics] Generating lyrics",
		logger.String("genre", genre),
		logger.Int("mantraLength", len(mantra)))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.lyricsTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a skilled songwriter who transforms personal mantras and affirmations into powerful song lyrics. "+
					"Create lyrics that are uplifting, emotionally resonant, and maintain the core message of the user's mantra. "+
					"The lyrics should be appropriate for the %s genre.", genre),
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Transform this personal mantra into song lyrics for a %s song:\n\n%q\n\n"+
					"Create 2-3 verses with a memorable chorus. Keep the core message and positive energy of the original mantra. "+
					"Make it singable and emotionally moving.", genre, mantra),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate song lyrics: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("lyric model returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("lyric model returned empty lyrics")
	}

	logger.Debug("[Lyrics] Generated lyrics", logger.Int("length", len(text)))
	return text, nil
}

// GenerateTitle produces a short song title for the mantra. Title failures
// are cosmetic, so any model error or empty response falls back to a local
// title instead of propagating.
func (c *Client) GenerateTitle(ctx context.Context, mantra string) string {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.titleTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a creative songwriter. Generate short, inspiring song titles (3-6 words) based on the user's mantra. " +
					"The title should capture the essence and emotion of their affirmation.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Create an inspiring song title for this mantra: %q", mantra),
			},
		},
	})
	if err != nil {
		logger.Warn("[Lyrics] Title generation failed, using fallback", logger.ErrorField(err))
		return FallbackTitle(mantra)
	}

	if len(resp.Choices) == 0 {
		return FallbackTitle(mantra)
	}
	title := strings.TrimSpace(resp.Choices[0].Message.Content)
	title = strings.NewReplacer(`"`, "", "'", "").Replace(title)
	if title == "" {
		logger.Warn("[Lyrics] Title model returned empty title, using fallback")
		return FallbackTitle(mantra)
	}
	return title
}
