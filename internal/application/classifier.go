package application

import (
	"strings"

	"erp-assistant/internal/domain"
)

// fuzzyThreshold is the match ratio at which a keyword set is accepted.
const fuzzyThreshold = 0.6

var (
	createKeywords     = []string{"system", "create", "product"}
	createKeywordsBare = []string{"create", "product"}
	listKeywordsGet    = []string{"system", "get", "products"}
	listKeywordsShow   = []string{"system", "show", "products"}
)

// MatchRatio tokenizes the utterance on whitespace and returns the
// fraction of keywords for which some token is a substring match of
// the keyword in either direction.
func MatchRatio(utterance string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	tokens := strings.Fields(strings.ToLower(utterance))
	matched := 0
	for _, kw := range keywords {
		for _, tok := range tokens {
			if strings.Contains(tok, kw) || strings.Contains(kw, tok) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(keywords))
}

// FuzzyMatch reports whether the utterance clears the 60% token-overlap
// bar against the keyword set. This tolerates noisy phrasing like
// "okay system create a product please".
func FuzzyMatch(utterance string, keywords []string) bool {
	return MatchRatio(utterance, keywords) >= fuzzyThreshold
}

// ClassifyCommand maps an idle-state utterance to a top-level command.
func ClassifyCommand(text string) domain.CommandKind {
	lower := strings.ToLower(text)
	tokens := strings.Fields(lower)

	hasCreate := false
	hasProduct := false
	for _, tok := range tokens {
		if strings.Contains(tok, "create") {
			hasCreate = true
		}
		if strings.Contains(tok, "product") {
			hasProduct = true
		}
	}
	if hasCreate && hasProduct {
		return domain.CommandCreateProduct
	}
	// List phrasings share "system" and "product(s)" with the create
	// sets, so they are checked before the looser create fallback.
	if FuzzyMatch(lower, listKeywordsGet) || FuzzyMatch(lower, listKeywordsShow) {
		return domain.CommandListProducts
	}
	if FuzzyMatch(lower, createKeywords) || FuzzyMatch(lower, createKeywordsBare) {
		return domain.CommandCreateProduct
	}
	return domain.CommandUnknown
}
