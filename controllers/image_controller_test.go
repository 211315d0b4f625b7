package controllers

import "testing"

func TestInlineSafe(t *testing.T) {
	tests := map[string]bool{
		"image/png":                true,
		"image/jpeg":               true,
		"IMAGE/GIF":                true,
		"image/svg+xml":            false,
		"text/html; charset=utf-8": false,
		"application/pdf":          false,
		"":                         false,
	}
	for ct, want := range tests {
		if got := inlineSafe(ct); got != want {
			t.Errorf("inlineSafe(%q) = %v, want %v", ct, got, want)
		}
	}
}
