package crawler

import "strings"

// botBlockMarkers are phrases that identify an anti-bot interstitial.
// The scan runs over the document title plus the first slice of visible
// text, lowercased.
var botBlockMarkers = []string{
	"captcha",
	"verify you are human",
	"verify that you are human",
	"are you a robot",
	"access denied",
	"ddos protection",
	"attention required",
	"unusual traffic",
	"pardon our interruption",
	"request blocked",
	"checking your browser",
	"just a moment",
}

// bodyScanLimit bounds how much visible text the detector reads. Real
// interstitials put the message above the fold; scanning whole product
// pages produces false positives from review text.
const bodyScanLimit = 2000

// IsBotBlocked reports whether the page content looks like an anti-bot
// interstitial rather than the requested document.
func IsBotBlocked(title, visibleText string) bool {
	if len(visibleText) > bodyScanLimit {
		visibleText = visibleText[:bodyScanLimit]
	}
	haystack := strings.ToLower(title + "\n" + visibleText)
	for _, marker := range botBlockMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}
