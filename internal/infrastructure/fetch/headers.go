package fetch

import (
	"net/http"
	"regexp"
	"strings"
	"time"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Some sites (GACC in particular) reject requests unless they carry
// browser-like headers; others answer the plainest request just fine.
// Profiles are attempted per strategy in the configured order.
func headerProfile(name string) map[string]string {
	switch name {
	case "minimal":
		return map[string]string{
			"User-Agent": "Mozilla/5.0",
		}
	case "simple":
		return map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			"Accept":          "text/html,application/rss+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en;q=0.9,zh-CN;q=0.8",
		}
	default: // "full"
		return map[string]string{
			"User-Agent":                browserUserAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7",
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
			"Cache-Control":             "max-age=0",
		}
	}
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

var dateExpr = regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}`)

var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
}

// parseDate tries the layouts above against the first date-looking token
// in text. The zero time means no date could be recovered.
func parseDate(text string) time.Time {
	candidates := []string{strings.TrimSpace(text)}
	if match := dateExpr.FindString(text); match != "" {
		candidates = append(candidates, match)
	}

	for _, candidate := range candidates {
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, candidate); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
