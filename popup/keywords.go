// Package popup clears consent banners, newsletter modals, and other
// overlays that block storefront captures. The policy is conservative:
// only labels from a fixed safe vocabulary are ever clicked, everything
// else is removed or hidden structurally.
package popup

import (
	"strings"

	"github.com/ysmood/gson"
)

// safeDismissKeywords are label fragments that are safe to click: they
// close or accept a dialog without committing the visitor to anything.
var safeDismissKeywords = []string{
	"accept all",
	"accept cookies",
	"accept",
	"allow all",
	"allow cookies",
	"agree",
	"i agree",
	"got it",
	"ok",
	"okay",
	"close",
	"dismiss",
	"no thanks",
	"no, thanks",
	"not now",
	"maybe later",
	"continue to site",
	"continue shopping",
	"reject all",
	"decline",
	"skip",
	"×",
}

// riskyKeywords are label fragments that must never be clicked by the
// dismisser, even when a safe fragment also matches ("ok, subscribe").
// Clicking these would mutate storefront state or submit visitor data.
var riskyKeywords = []string{
	"subscribe",
	"sign up",
	"signup",
	"sign in",
	"log in",
	"login",
	"register",
	"buy",
	"purchase",
	"checkout",
	"add to cart",
	"add to bag",
	"apply",
	"submit",
	"confirm order",
	"download",
	"install",
	"unsubscribe",
	"delete",
	"save preferences",
	"enter email",
	"claim",
	"redeem",
}

// IsSafeDismissLabel reports whether a control label is in the safe
// dismiss vocabulary. A risky fragment anywhere in the label vetoes it.
func IsSafeDismissLabel(label string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(label))
	if trimmed == "" || len(trimmed) > 40 {
		return false
	}
	for _, risky := range riskyKeywords {
		if strings.Contains(trimmed, risky) {
			return false
		}
	}
	for _, safe := range safeDismissKeywords {
		if strings.Contains(trimmed, safe) {
			return true
		}
	}
	return false
}

// boolResult reads an evaluated JS value as a bool without panicking on
// unexpected shapes.
func boolResult(j gson.JSON) bool {
	b, _ := j.Val().(bool)
	return b
}

// stringResult reads an evaluated JS value as a string.
func stringResult(j gson.JSON) string {
	s, _ := j.Val().(string)
	return s
}

// stringResults reads an evaluated JS array of strings.
func stringResults(j gson.JSON) []string {
	raw, _ := j.Val().([]interface{})
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// jsStringArray renders a Go string slice as a JS array literal for
// embedding in evaluated scripts.
func jsStringArray(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(item, `"`, `\"`))
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return b.String()
}
