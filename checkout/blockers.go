package checkout

import (
	"strings"

	"github.com/shoplens/shoplens/models"
)

// blockerMarkers maps visible-text phrases to the blocker they signal.
// Order matters: the first category with a match wins, and the more
// specific storefront-wide conditions come before generic ones.
var blockerMarkers = []struct {
	blocker models.CheckoutBlocker
	phrases []string
}{
	{models.BlockerPasswordProtected, []string{
		"enter store using password",
		"enter using password",
		"opening soon",
		"password protected",
		"this store is password protected",
	}},
	{models.BlockerRegionRestriction, []string{
		"not available in your country",
		"not available in your region",
		"we don't ship to your location",
		"we do not ship to",
		"unavailable in your area",
		"this store does not ship to",
	}},
	{models.BlockerLoginRequired, []string{
		"sign in to continue",
		"log in to continue",
		"login to continue",
		"please sign in to checkout",
		"account required",
		"members only",
	}},
	{models.BlockerCaptcha, []string{
		"captcha",
		"verify you are human",
		"confirm you are not a robot",
	}},
	{models.BlockerOutOfStock, []string{
		"out of stock",
		"sold out",
		"currently unavailable",
		"no longer available",
	}},
}

// urlBlockerHints maps URL path fragments to blockers: some storefronts
// redirect instead of rendering a message.
var urlBlockerHints = []struct {
	blocker  models.CheckoutBlocker
	fragment string
}{
	{models.BlockerPasswordProtected, "/password"},
	{models.BlockerLoginRequired, "/account/login"},
	{models.BlockerLoginRequired, "/login?return_url"},
	{models.BlockerCaptcha, "/challenge"},
}

// DetectBlocker scans the current URL and visible text for a condition
// that legitimately stops the automated flow. The caller records the
// step as blocked rather than failed so the audit distinguishes "the
// store stopped us" from "we could not drive the store".
func DetectBlocker(currentURL, visibleText string) (models.CheckoutBlocker, bool) {
	lowerURL := strings.ToLower(currentURL)
	for _, h := range urlBlockerHints {
		if strings.Contains(lowerURL, h.fragment) {
			return h.blocker, true
		}
	}

	lower := strings.ToLower(visibleText)
	if len(lower) > 4000 {
		lower = lower[:4000]
	}
	for _, m := range blockerMarkers {
		for _, phrase := range m.phrases {
			if strings.Contains(lower, phrase) {
				return m.blocker, true
			}
		}
	}
	return "", false
}
