package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/source"
)

const listingFixture = `<html><body>
  <div class="views-row">
    <h3 class="views-field-title"><a href="/news-events/fda-updates-rules">FDA updates food facility registration rules</a></h3>
    <div class="views-field-field-release-date">2026-01-05</div>
  </div>
  <div class="views-row">
    <h3 class="views-field-title"><a href="https://example.org/absolute-article">Absolute link announcement here</a></h3>
  </div>
  <div class="views-row">
    <h3 class="views-field-title"><a href="/nav">More</a></h3>
  </div>
  <div class="views-row">
    <h3 class="views-field-title"><span>No link in this row at all</span></h3>
  </div>
</body></html>`

func fdaSelectors() source.Selectors {
	return source.Selectors{
		Container: ".views-row",
		Title:     ".views-field-title a",
		Link:      ".views-field-title a",
		Date:      ".views-field-field-release-date",
	}
}

func TestListingStrategyFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingFixture))
	}))
	defer server.Close()

	strategy := NewListingStrategy(server.Client())
	links, err := strategy.Fetch(context.Background(), source.Request{
		Source:      domain.SourceFDA,
		URL:         server.URL + "/newsroom",
		Selectors:   fdaSelectors(),
		MaxArticles: 20,
	})
	require.NoError(t, err)
	require.Len(t, links, 2, "navigation links and link-less rows are skipped")

	assert.Equal(t, "FDA updates food facility registration rules", links[0].Title)
	assert.Equal(t, server.URL+"/news-events/fda-updates-rules", links[0].URL, "relative URLs are absolutized")
	assert.Equal(t, "2026-01-05", links[0].PublishedAt.Format("2006-01-02"))

	assert.Equal(t, "https://example.org/absolute-article", links[1].URL)
}

func TestListingStrategyBoundedOutput(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><ul>")
		for i := 0; i < 40; i++ {
			fmt.Fprintf(w, `<li><a href="/item-%d">A sufficiently long article title %d</a></li>`, i, i)
		}
		fmt.Fprint(w, "</ul></body></html>")
	}))
	defer server.Close()

	strategy := NewListingStrategy(server.Client())
	links, err := strategy.Fetch(context.Background(), source.Request{
		Source:      domain.SourceGACC,
		URL:         server.URL,
		Selectors:   source.Selectors{Container: "li"},
		MaxArticles: 20,
	})
	require.NoError(t, err)
	assert.Len(t, links, 20)
}

func TestListingStrategyDuplicateURLs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
		  <li><a href="/same-article">Duplicate listing entry title</a></li>
		  <li><a href="/same-article">Duplicate listing entry title</a></li>
		</body></html>`)
	}))
	defer server.Close()

	strategy := NewListingStrategy(server.Client())
	links, err := strategy.Fetch(context.Background(), source.Request{
		Source:      domain.SourceGACC,
		URL:         server.URL,
		Selectors:   source.Selectors{Container: "li"},
		MaxArticles: 20,
	})
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestListingStrategyMissingContainer(t *testing.T) {
	t.Parallel()

	strategy := NewListingStrategy(nil)
	_, err := strategy.Fetch(context.Background(), source.Request{
		Source:      domain.SourceGACC,
		URL:         "http://127.0.0.1:0/unreachable",
		MaxArticles: 20,
	})
	assert.Error(t, err)
}
