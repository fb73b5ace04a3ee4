package pdp

import (
	"reflect"
	"testing"
)

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"x.com", "x.com"},
		{"www.x.com", "x.com"},
		{"shop.x.com", "x.com"},
		{"WWW.Example.COM", "example.com"},
		{"deep.sub.example.com", "example.com"},
		{"localhost", "localhost"},
	}
	for _, tt := range tests {
		if got := registrableDomain(tt.host); got != tt.want {
			t.Errorf("registrableDomain(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestFilterCandidates_DropsCrossSiteAndExcluded(t *testing.T) {
	in := []string{
		"https://x.com/product/a",
		"https://x.com/account/x",
		"https://other.com/product/b",
	}
	got := FilterCandidates(in, "https://x.com/", 10)
	want := []string{"https://x.com/product/a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterCandidates = %v, want %v", got, want)
	}
}

func TestFilterCandidates_DedupAndOrder(t *testing.T) {
	in := []string{
		"https://x.com/product/a",
		"https://x.com/product/b",
		"https://x.com/product/a",
		"https://x.com/product/c",
	}
	got := FilterCandidates(in, "https://x.com/", 10)
	want := []string{
		"https://x.com/product/a",
		"https://x.com/product/b",
		"https://x.com/product/c",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterCandidates = %v, want %v", got, want)
	}
}

func TestFilterCandidates_RespectsCap(t *testing.T) {
	in := []string{
		"https://x.com/product/a",
		"https://x.com/product/b",
		"https://x.com/product/c",
	}
	if got := FilterCandidates(in, "https://x.com/", 2); len(got) != 2 {
		t.Errorf("FilterCandidates cap 2 returned %d entries", len(got))
	}
}

func TestFilterCandidates_SubdomainIsSameSite(t *testing.T) {
	in := []string{"https://shop.x.com/product/a"}
	got := FilterCandidates(in, "https://www.x.com/", 10)
	if len(got) != 1 {
		t.Fatalf("subdomain candidate dropped: %v", got)
	}
}

func TestNormalizeCandidate_Schemes(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"mailto:sales@x.com", ""},
		{"tel:+15551234", ""},
		{"#reviews", ""},
		{"javascript:void(0)", ""},
		{"/product/a#gallery", "https://x.com/product/a"},
		{"/checkout/start", ""},
		{"/signin", ""},
	}
	base := mustParse(t, "https://x.com/")
	for _, tt := range tests {
		if got := normalizeCandidate(tt.href, base); got != tt.want {
			t.Errorf("normalizeCandidate(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}
