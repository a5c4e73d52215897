package textutil

import (
	"regexp"
	"strings"
)

// wordPattern matches token boundaries for keyword scanning. Diacritics are
// folded before matching, so ASCII letters and digits suffice.
var wordPattern = regexp.MustCompile(`[^a-z0-9]+`)

// nounSuffixes lists common Polish noun case endings, longest first so a
// single trim pass removes the full ending.
var nounSuffixes = []string{
	"ami", "ach", "owi", "iem", "em", "om", "ie", "a", "e", "i", "o", "u", "y",
}

// Stem lowercases a token, folds diacritics, and strips one case ending.
// This stands in for full morphological analysis: "zmywarką", "zmywarki"
// and "zmywarka" all reduce to "zmywark".
func Stem(token string) string {
	token = FoldASCII(strings.ToLower(strings.TrimSpace(token)))
	if len(token) <= 4 {
		return token
	}
	for _, suffix := range nounSuffixes {
		if strings.HasSuffix(token, suffix) && len(token)-len(suffix) >= 4 {
			return token[:len(token)-len(suffix)]
		}
	}
	return token
}

// ContainsKeyword reports whether any token of text shares a stem with any
// of the keywords. Keywords are stemmed with the same rules as the text.
func ContainsKeyword(text string, keywords []string) bool {
	if strings.TrimSpace(text) == "" || len(keywords) == 0 {
		return false
	}
	stems := make(map[string]struct{}, len(keywords))
	for _, keyword := range keywords {
		if stem := Stem(keyword); stem != "" {
			stems[stem] = struct{}{}
		}
	}
	lowered := FoldASCII(strings.ToLower(text))
	for _, token := range wordPattern.Split(lowered, -1) {
		if token == "" {
			continue
		}
		if _, ok := stems[Stem(token)]; ok {
			return true
		}
	}
	return false
}
