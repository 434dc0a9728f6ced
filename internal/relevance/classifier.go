package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
)

const (
	fallbackBaseScore  = 50
	fallbackBoostStep  = 10
	fallbackExcludeCap = 20
	maxScore           = 100
)

var jsonBlockExpr = regexp.MustCompile(`(?s)\{.*\}`)

// Classifier implements the tier-2/3 relevance decision. With a chat
// client it asks an external model for a structured verdict; on any
// failure, or with no client at all, it degrades to a deterministic
// keyword heuristic so the pipeline stays fully functional offline.
type Classifier struct {
	chat     ports.ChatClient
	keywords Keywords
	language string
	logger   *slog.Logger
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier wires the optional chat client with the keyword layers.
// A nil client means heuristic-only operation.
func NewClassifier(chat ports.ChatClient, kw Keywords, summaryLanguage string, logger *slog.Logger) *Classifier {
	return &Classifier{
		chat:     chat,
		keywords: kw,
		language: summaryLanguage,
		logger:   logger,
	}
}

// Classify never fails: classifier outages are logged and absorbed by the
// fallback heuristic, and no persisted state is touched either way.
func (c *Classifier) Classify(ctx context.Context, detail domain.ArticleDetail, src domain.Source) domain.Classification {
	if c.chat != nil {
		result, err := c.classifyWithAI(ctx, detail, src)
		if err == nil {
			return result
		}
		c.warn("ai classification failed, using keyword fallback", "url", detail.URL, "error", err)
	}

	return c.Fallback(detail)
}

func (c *Classifier) classifyWithAI(ctx context.Context, detail domain.ArticleDetail, src domain.Source) (domain.Classification, error) {
	response, err := c.chat.Complete(ctx, c.buildPrompt(detail, src))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("chat completion: %w", err)
	}

	block, ok := extractJSONBlock(response)
	if !ok {
		return domain.Classification{}, fmt.Errorf("no JSON block in model response")
	}

	var parsed struct {
		IsRelevant     bool     `json:"isRelevant"`
		RelevanceScore int      `json:"relevanceScore"`
		FilterLayer    string   `json:"filterLayer"`
		Keywords       []string `json:"keywords"`
		Category       string   `json:"category"`
		Summary        string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return domain.Classification{}, fmt.Errorf("decode model verdict: %w", err)
	}

	layer := domain.FilterLayer(parsed.FilterLayer)
	if !domain.ValidFilterLayer(layer) {
		layer = domain.FilterLayer2
	}

	return domain.Classification{
		Passed:         parsed.IsRelevant,
		RelevanceScore: clampScore(parsed.RelevanceScore),
		FilterLayer:    layer,
		Keywords:       parsed.Keywords,
		Category:       parsed.Category,
		Summary:        parsed.Summary,
	}, nil
}

func (c *Classifier) buildPrompt(detail domain.ArticleDetail, src domain.Source) string {
	var b strings.Builder
	b.WriteString("Analyze this news article and judge its relevance to food export/import regulation:\n\n")
	fmt.Fprintf(&b, "TITLE: %s\nSOURCE: %s\nURL: %s\nCONTENT: %s\n\n", detail.Title, src, detail.URL, detail.Content)
	b.WriteString("Three-layer filter rules:\n")
	fmt.Fprintf(&b, "- Layer 1 (REQUIRED): must touch at least one of: %s\n", strings.Join(c.keywords.Must, ", "))
	fmt.Fprintf(&b, "- Layer 2 (PREFERRED): stronger if it mentions: %s\n", strings.Join(c.keywords.Should, ", "))
	fmt.Fprintf(&b, "- Layer 3 (EXCLUDE): reject articles about: %s\n\n", strings.Join(c.keywords.Exclude, ", "))
	b.WriteString("Also consider: FDA, GACC, or MFDS regulation mentions; legal paperwork such as Process Filing, GACC Registration, US Agent, FSVP; new policy updates affecting food exporters.\n\n")
	b.WriteString("Return JSON only, no extra explanation:\n")
	b.WriteString(`{
  "isRelevant": true/false,
  "relevanceScore": 0-100,
  "filterLayer": "layer1" | "layer2" | "layer3",
  "keywords": ["matched", "keywords"],
  "category": "FDA Regulations" | "GACC Updates" | "Export Requirements" | "Import Compliance" | "Food Safety" | "Policy Changes",
`)
	fmt.Fprintf(&b, "  \"summary\": \"2-3 sentences in %s\"\n}\n", c.summaryLanguage())
	return b.String()
}

func (c *Classifier) summaryLanguage() string {
	if strings.TrimSpace(c.language) == "" {
		return "English"
	}
	return c.language
}

// Fallback is the deterministic three-layer keyword heuristic. Given the
// same detail it always produces the same verdict, which keeps the
// pipeline testable without the external service.
func (c *Classifier) Fallback(detail domain.ArticleDetail) domain.Classification {
	text := detail.Title + " " + detail.Content

	mustMatches := matches(c.keywords.Must, text)
	if len(mustMatches) == 0 {
		return domain.Classification{
			Passed:         false,
			RelevanceScore: 0,
			FilterLayer:    domain.FilterLayer1,
			Category:       "Not relevant",
			Summary:        "Article contains none of the required food export/import keywords.",
		}
	}

	excludeMatches := matches(c.keywords.Exclude, text)
	if len(excludeMatches) > 0 {
		return domain.Classification{
			Passed:         false,
			RelevanceScore: fallbackExcludeCap,
			FilterLayer:    domain.FilterLayer3,
			Keywords:       excludeMatches,
			Category:       "Excluded",
			Summary:        "Article belongs to an excluded domain (pharmaceuticals, medical devices).",
		}
	}

	shouldMatches := matches(c.keywords.Should, text)
	score := clampScore(fallbackBaseScore + fallbackBoostStep*len(shouldMatches))

	layer := domain.FilterLayer1
	if len(shouldMatches) > 0 {
		layer = domain.FilterLayer2
	}

	return domain.Classification{
		Passed:         true,
		RelevanceScore: score,
		FilterLayer:    layer,
		Keywords:       append(mustMatches, shouldMatches...),
		Category:       "Food export/import",
		Summary: fmt.Sprintf("Related to %s. Matched %d relevant keywords.",
			strings.Join(mustMatches, ", "), len(mustMatches)+len(shouldMatches)),
	}
}

// extractJSONBlock pulls the first {...} block out of a response that may
// wrap the verdict in markdown fences or extra prose.
func extractJSONBlock(text string) (string, bool) {
	block := jsonBlockExpr.FindString(text)
	if block == "" {
		return "", false
	}
	return block, true
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

func (c *Classifier) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
