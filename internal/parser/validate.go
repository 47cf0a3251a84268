package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Vocabulary that shows up in attribute cells next to the MPN field (units,
// hazard notices, descriptions). A candidate containing any of these is not a
// part number. Tuned against fr.rs-online.com listing markup.
var rejectionSubstrings = []string{
	"contains svhc", "cadmium", "lead", "cas no", "ah", " v ", " volt", "volts",
	"amp", "capacity", "rechargeable", "watt", "battery", "description",
}

var (
	letterPattern     = regexp.MustCompile(`[A-Za-zÀ-ÖØ-öø-ÿ]`)
	alnumPattern      = regexp.MustCompile(`[A-Za-z0-9]`)
	digitPattern      = regexp.MustCompile(`\d`)
	punctPattern      = regexp.MustCompile(`[-_/.]`)
	pureDigitsPattern = regexp.MustCompile(`^\d{2,20}$`)
	tokenSplitPattern = regexp.MustCompile(`[\s,;/]+`)
)

// norm collapses runs of whitespace to single spaces and trims the ends.
func norm(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LooksLikeBrand reports whether s is a plausible brand label: at least one
// letter (accented Latin included) and more than one rune.
func LooksLikeBrand(s string) bool {
	s = strings.TrimSpace(s)
	return letterPattern.MatchString(s) && utf8.RuneCountInString(s) > 1
}

// IsValidMPNFromField is the strict check applied to text pulled out of an
// MPN-labelled field. It rejects long phrases, attribute vocabulary, and
// candidates that merely echo the queried part number back.
func IsValidMPNFromField(candidate, rsPNHint string) bool {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return false
	}
	if len(strings.Fields(s)) > 6 {
		return false
	}

	lower := strings.ToLower(s)
	for _, bad := range rejectionSubstrings {
		if strings.Contains(lower, bad) {
			return false
		}
	}

	if !alnumPattern.MatchString(s) {
		return false
	}

	if rsPNHint != "" && strings.EqualFold(strings.ReplaceAll(s, " ", ""), rsPNHint) {
		return false
	}

	return true
}

// HeuristicMPNCandidate is the loose check used on tokens split out of a
// candidate that failed strict validation. Pure numeric tokens of 2-20 digits
// pass unless they equal the queried part number; otherwise the token must mix
// letters with digits or punctuation, or be a single alphabetic word of three
// or more runes.
func HeuristicMPNCandidate(tok, rsPNHint string) bool {
	s := strings.TrimSpace(tok)
	if s == "" {
		return false
	}
	if len(strings.Fields(s)) > 4 {
		return false
	}
	if strings.Contains(s, ":") {
		return false
	}
	if !alnumPattern.MatchString(s) {
		return false
	}

	if pureDigitsPattern.MatchString(s) {
		return rsPNHint == "" || s != rsPNHint
	}

	hasLetter := letterPattern.MatchString(s)
	hasDigit := digitPattern.MatchString(s)
	hasPunct := punctPattern.MatchString(s)

	if (hasLetter && hasDigit) || (hasPunct && (hasLetter || hasDigit)) {
		return true
	}

	if hasLetter && utf8.RuneCountInString(s) >= 3 && len(strings.Fields(s)) == 1 {
		return true
	}

	return false
}

// RefineMPN salvages a candidate that failed strict validation by splitting it
// on whitespace and list punctuation and keeping the first token that passes
// the loose heuristic. Returns "" when no token qualifies.
func RefineMPN(candidate, rsPNHint string) string {
	for _, tok := range tokenSplitPattern.Split(candidate, -1) {
		if HeuristicMPNCandidate(tok, rsPNHint) {
			return tok
		}
	}
	return ""
}
