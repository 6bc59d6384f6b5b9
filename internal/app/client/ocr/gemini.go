package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"
	"google.golang.org/genai"

	"cardkeeper/internal/domain/card"
)

const DefaultModel = "gemini-1.5-flash"

const extractPrompt = `Analyze this business card image.
Return JSON that follows exactly this schema:
{
  "name": "business or person name",
  "type": "Ristorante" | "Hotel" | "Esperienze",
  "address": "full address",
  "phone": "phone number",
  "website": "website",
  "email": "email",
  "suggestedTags": ["tag1", "tag2", "tag3"],
  "lat": null,
  "lng": null
}
Use an empty string for any value you cannot find.`

// generator - узкий срез genai.Models, который нужен пакету
type generator interface {
	generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g genaiGenerator) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Gemini - распознавание и консьерж поверх Gemini API
type Gemini struct {
	gen generator
	log *slog.Logger
}

var _ Extractor = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey, model string, log *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{
		gen: genaiGenerator{client: client, model: model},
		log: log.With("component", "gemini", "model", model),
	}, nil
}

func (g *Gemini) Extract(ctx context.Context, image []byte, mimeType string) (*Extraction, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(extractPrompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}

	text, err := g.gen.generate(ctx, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		g.log.Warn("extraction failed", "error", err)
		return nil, fmt.Errorf("GenAI extraction failed: %w", err)
	}

	out, err := parseExtraction(text)
	if err != nil {
		g.log.Warn("unparseable extraction", "error", err)
		return nil, err
	}

	return out, nil
}

type conciergeItem struct {
	Name  string    `json:"name"`
	Type  card.Type `json:"type"`
	Notes string    `json:"notes"`
}

// Ask отвечает на вопрос пользователя по его сохраненным карточкам
func (g *Gemini) Ask(ctx context.Context, question string, cards []card.Card) (string, error) {
	items := make([]conciergeItem, 0, len(cards))
	for _, c := range cards {
		items = append(items, conciergeItem{Name: c.Name, Type: card.NormalizeType(c.Type), Notes: c.Notes})
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode context: %w", err)
	}

	prompt := "You are a friendly hospitality concierge. Using only these saved places: " +
		string(data) + "\nanswer the user's question briefly: " + strings.TrimSpace(question)

	text, err := g.gen.generate(ctx, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		g.log.Warn("concierge failed", "error", err)
		return "", fmt.Errorf("GenAI concierge failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}
