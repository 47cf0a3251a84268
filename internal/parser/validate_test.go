package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeBrand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple brand", "Siemens", true},
		{"two words", "Schneider Electric", true},
		{"in-house brand", "RS PRO", true},
		{"accented brand", "Würth Elektronik", true},
		{"empty", "", false},
		{"single digit", "3", false},
		{"single letter", "A", false},
		{"digits only", "123456", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeBrand(tt.input))
		})
	}
}

func TestIsValidMPNFromField(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		hint      string
		want      bool
	}{
		{"typical mpn", "3RT2015-1BB41", "", true},
		{"numeric mpn", "1234567", "", true},
		{"mpn with spaces", "MN 1500", "", true},
		{"empty", "", "", false},
		{"too many words", "one two three four five six seven", "", false},
		{"hazard notice", "Contains SVHC: Lead", "", false},
		{"battery attribute", "Rechargeable NiMH battery", "", false},
		{"capacity cell", "2.4 Ah", "", false},
		{"no alphanumerics", "---", "", false},
		{"echoes the query", "777-9999", "777-9999", false},
		{"echoes the query with spaces", "777 - 9999", "777-9999", false},
		{"echoes the query case folded", "abc-123", "ABC-123", false},
		{"different from hint", "XYZ-1", "777-9999", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidMPNFromField(tt.candidate, tt.hint))
		})
	}
}

func TestHeuristicMPNCandidate(t *testing.T) {
	tests := []struct {
		name string
		tok  string
		hint string
		want bool
	}{
		{"letters and digits", "MC34063", "", true},
		{"punct and digits", "12-345", "", true},
		{"punct and letters", "abc-def", "", true},
		{"pure digits", "1234", "", true},
		{"pure digits equal to hint", "1234567", "1234567", false},
		{"pure digits different from hint", "1234567", "7654321", true},
		{"single long word", "Duracell", "", true},
		{"two-letter word", "RS", "", false},
		{"contains colon", "ref:1234", "", false},
		{"too many words", "a b c d e", "", false},
		{"empty", "", "", false},
		{"no alphanumerics", "!!", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HeuristicMPNCandidate(tt.tok, tt.hint))
		})
	}
}

func TestRefineMPN(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		hint      string
		want      string
	}{
		{"first usable token", "?? !! ABC-12", "", "ABC-12"},
		{"splits on commas", "lot,de,MC34063", "", "lot"},
		{"nothing usable", "a b", "", ""},
		{"skips hint echo", "1234567 8901234", "1234567", "8901234"},
		{"empty input", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RefineMPN(tt.candidate, tt.hint))
		})
	}
}

func TestNorm(t *testing.T) {
	assert.Equal(t, "a b c", norm("  a\n b\t  c "))
	assert.Equal(t, "", norm("   "))
}
