package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/yurifrl/vizbuck/pkg/models"
)

const DefaultModel = "gemini-2.5-flash"

var classifiableNatures = []string{
	string(models.Need), string(models.Want), string(models.Luxury), string(models.Saving), string(models.Income),
}

// Gemini classifies a batch of descriptions with a single GenerateContent call
// constrained by a JSON response schema.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Classifier = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Classify(ctx context.Context, descriptions []string) ([]Result, error) {
	if len(descriptions) == 0 {
		return nil, nil
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(descriptions)), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}
	return parseResults(raw)
}

func responseSchema() *genai.Schema {
	cats := models.Categories()
	enum := make([]string, len(cats))
	for i, c := range cats {
		enum[i] = string(c)
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {Type: genai.TypeString, Enum: enum},
				"nature":   {Type: genai.TypeString, Enum: classifiableNatures},
			},
			Required: []string{"category", "nature"},
		},
	}
}

func buildPrompt(descriptions []string) string {
	cats := models.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}

	var b strings.Builder
	b.WriteString("You are an expert financial categorizer for an Indian user.\n")
	b.WriteString("For EACH transaction description below, give its most likely category and expense nature.\n\n")
	fmt.Fprintf(&b, "Return a JSON array with exactly %d objects, one per description, in the same order.\n", len(descriptions))
	b.WriteString("Each object has a \"category\" and a \"nature\" key.\n\n")
	fmt.Fprintf(&b, "Valid categories: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Valid natures: %s\n\n", strings.Join(classifiableNatures, ", "))
	b.WriteString("Example:\n")
	b.WriteString("1. \"ZOMATO PAYMENTS\" -> {\"category\": \"Food & Dining\", \"nature\": \"want\"}\n")
	b.WriteString("2. \"SALARY CREDIT\" -> {\"category\": \"Salary & Income\", \"nature\": \"income\"}\n")
	b.WriteString("3. \"RENT MAY 2024\" -> {\"category\": \"Housing/Rent\", \"nature\": \"need\"}\n")
	b.WriteString("4. \"ZERODHA KITE\" -> {\"category\": \"SIP & Investments\", \"nature\": \"saving\"}\n\n")
	fmt.Fprintf(&b, "Descriptions (total %d):\n", len(descriptions))
	for i, d := range descriptions {
		fmt.Fprintf(&b, "%d. %q\n", i+1, d)
	}
	return b.String()
}

func parseResults(raw string) ([]Result, error) {
	var results []Result
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &results); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}
	return results, nil
}

// cleanModelJSON drops markdown fences the model sometimes adds despite the schema.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
