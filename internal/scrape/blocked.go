package scrape

import (
	"fmt"
	"net/http"
	"strings"

	"locaudit/internal/content"
)

// Body shorter than this with a challenge-ish status usually means an
// interstitial rather than real page content.
const minPlausibleBodyChars = 200

var challengeTitles = []string{
	"just a moment",
	"attention required",
	"access denied",
	"verify you are human",
	"are you a robot",
	"one more step",
	"security check",
}

var challengeMarkers = []string{
	"cf-challenge",
	"cf-browser-verification",
	"challenge-platform",
	"_cf_chl_opt",
	"g-recaptcha",
	"h-captcha",
	"px-captcha",
	"distil_r_captcha",
	"unusual traffic from your",
}

// DetectBlock inspects a fetch result for anti-automation challenge pages.
// It returns a human-readable reason when the response looks like a block
// rather than real content.
func DetectBlock(result *FetchResult, extraction *content.Extraction) (string, bool) {
	if result == nil {
		return "", false
	}

	title := ""
	if extraction != nil {
		title = strings.ToLower(extraction.Title)
	}
	for _, marker := range challengeTitles {
		if strings.Contains(title, marker) {
			return fmt.Sprintf("challenge page detected (title %q)", extraction.Title), true
		}
	}

	body := strings.ToLower(string(result.Body))
	for _, marker := range challengeMarkers {
		if strings.Contains(body, marker) {
			return fmt.Sprintf("challenge markup detected (%s)", marker), true
		}
	}

	switch result.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return fmt.Sprintf("request rejected with http %d", result.StatusCode), true
	}

	// A successful status with nearly no text is typically a JS-gated page
	// the plain fetcher cannot see through.
	if extraction != nil && extraction.Empty() && len(strings.TrimSpace(extraction.RawText)) < minPlausibleBodyChars {
		return "page returned no meaningful text content", true
	}

	return "", false
}
