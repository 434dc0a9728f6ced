package relevance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsScanner/internal/domain"
)

var testKeywords = Keywords{
	Must:    []string{"food", "FDA", "export", "registration"},
	Should:  []string{"seafood", "labeling", "FSVP"},
	Exclude: []string{"pharmaceutical", "medical device"},
}

type fakeChat struct {
	response string
	err      error
	calls    int
}

func (f *fakeChat) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func detailFor(title, content string) domain.ArticleDetail {
	return domain.ArticleDetail{
		CandidateLink: domain.CandidateLink{Title: title, URL: "https://example.org/a"},
		Content:       content,
	}
}

func TestMatchTier1(t *testing.T) {
	t.Parallel()

	assert.True(t, testKeywords.MatchTier1("FDA updates food facility registration rules"))
	assert.True(t, testKeywords.MatchTier1("new EXPORT requirements"), "matching is case-insensitive")
	assert.False(t, testKeywords.MatchTier1("Celebrity news unrelated"))
	assert.False(t, testKeywords.MatchTier1(""))
}

func TestFallbackDeterminism(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil, testKeywords, "", nil)
	detail := detailFor("FDA food export update", "new seafood labeling rules for exporters")

	first := c.Classify(context.Background(), detail, domain.SourceFDA)
	for i := 0; i < 5; i++ {
		again := c.Classify(context.Background(), detail, domain.SourceFDA)
		assert.Equal(t, first.Passed, again.Passed)
		assert.Equal(t, first.RelevanceScore, again.RelevanceScore)
		assert.Equal(t, first.FilterLayer, again.FilterLayer)
	}

	assert.True(t, first.Passed)
	assert.Equal(t, domain.FilterLayer2, first.FilterLayer)
}

func TestFallbackNoMustKeywords(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil, testKeywords, "", nil)
	result := c.Classify(context.Background(), detailFor("Celebrity news", "gossip column"), domain.SourceFDA)

	assert.False(t, result.Passed)
	assert.Equal(t, 0, result.RelevanceScore)
	assert.Equal(t, domain.FilterLayer1, result.FilterLayer)
}

func TestFallbackExclusionDominatesBoost(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil, testKeywords, "", nil)
	// Contains a must keyword, a should keyword, and an exclude keyword:
	// layer 3 must win regardless of the layer-2 matches.
	detail := detailFor("FDA seafood notice", "pharmaceutical import guidance mentioning seafood labeling")
	result := c.Classify(context.Background(), detail, domain.SourceFDA)

	assert.False(t, result.Passed)
	assert.Equal(t, 20, result.RelevanceScore)
	assert.Equal(t, domain.FilterLayer3, result.FilterLayer)
	assert.Contains(t, result.Keywords, "pharmaceutical")
}

func TestFallbackScoreBoost(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil, testKeywords, "", nil)

	// One must match, no should matches: base score, layer 1.
	plain := c.Fallback(detailFor("food notice", "routine announcement"))
	assert.True(t, plain.Passed)
	assert.Equal(t, 50, plain.RelevanceScore)
	assert.Equal(t, domain.FilterLayer1, plain.FilterLayer)

	// Three should matches: 50 + 3*10.
	boosted := c.Fallback(detailFor("food export rules", "seafood labeling under FSVP"))
	assert.True(t, boosted.Passed)
	assert.Equal(t, 80, boosted.RelevanceScore)
	assert.Equal(t, domain.FilterLayer2, boosted.FilterLayer)
}

func TestFallbackScoreCap(t *testing.T) {
	t.Parallel()

	many := Keywords{
		Must:   []string{"food"},
		Should: []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"},
	}
	c := NewClassifier(nil, many, "", nil)
	result := c.Fallback(detailFor("food", "a1 a2 a3 a4 a5 a6 a7"))

	assert.True(t, result.Passed)
	assert.Equal(t, 100, result.RelevanceScore, "score never exceeds 100")
}

func TestClassifyUsesAIVerdict(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: `Here is my analysis of the article.
{
  "isRelevant": true,
  "relevanceScore": 85,
  "filterLayer": "layer2",
  "keywords": ["food", "registration"],
  "category": "FDA Regulations",
  "summary": "FDA updated registration rules."
}
Hope that helps!`}

	c := NewClassifier(chat, testKeywords, "", nil)
	result := c.Classify(context.Background(), detailFor("FDA food update", "registration changes"), domain.SourceFDA)

	require.Equal(t, 1, chat.calls)
	assert.True(t, result.Passed)
	assert.Equal(t, 85, result.RelevanceScore)
	assert.Equal(t, domain.FilterLayer2, result.FilterLayer)
	assert.Equal(t, "FDA Regulations", result.Category)
}

func TestClassifyClampsAIScore(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: `{"isRelevant": true, "relevanceScore": 250, "filterLayer": "layer2"}`}
	c := NewClassifier(chat, testKeywords, "", nil)
	result := c.Classify(context.Background(), detailFor("food", "food"), domain.SourceFDA)

	assert.Equal(t, 100, result.RelevanceScore)
}

func TestClassifyFallsBackOnChatError(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{err: errors.New("service unavailable")}
	c := NewClassifier(chat, testKeywords, "", nil)
	detail := detailFor("FDA food export update", "seafood labeling changes")

	result := c.Classify(context.Background(), detail, domain.SourceFDA)
	fallback := c.Fallback(detail)

	assert.Equal(t, fallback, result, "chat failure degrades to the deterministic heuristic")
}

func TestClassifyFallsBackOnUnparseableResponse(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: "I cannot answer in the requested format."}
	c := NewClassifier(chat, testKeywords, "", nil)
	detail := detailFor("food export notice", "details")

	result := c.Classify(context.Background(), detail, domain.SourceFDA)

	assert.Equal(t, c.Fallback(detail), result)
}

func TestExtractJSONBlock(t *testing.T) {
	t.Parallel()

	block, ok := extractJSONBlock("prose before {\"a\": 1} prose after")
	require.True(t, ok)
	assert.JSONEq(t, `{"a": 1}`, block)

	_, ok = extractJSONBlock("no json here")
	assert.False(t, ok)
}
