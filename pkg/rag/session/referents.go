package session

import (
	"regexp"
	"strings"

	"commerce-assistant/pkg/rag/search"
)

// ShortMessageRunes is the length under which a message is assumed to lean
// on earlier turns.
const ShortMessageRunes = 30

// ReferentLookback is how many assistant turns are scanned for a referent.
const ReferentLookback = 5

var referringPhrases = []string{
	// vi
	"cái này", "cái đó", "cái kia", "sản phẩm này", "sản phẩm đó", "sản phẩm trên",
	"mẫu này", "mẫu đó", "mẫu trên", "món này", "món đó", "như trên", "nó",
	"áo này", "quần này", "váy này", "đầm này", "giày này", "túi này",
	// en
	"this", "that", "that one", "this one", "it", "the same", "above",
}

var boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// IsReferring reports whether the message is short or points back at
// something already said.
func IsReferring(message string) bool {
	if len([]rune(strings.TrimSpace(message))) < ShortMessageRunes {
		return true
	}
	padded := " " + search.Normalize(message) + " "
	for _, p := range referringPhrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// BoldNames returns the **Name** markers of a text in order of appearance.
func BoldNames(text string) []string {
	var names []string
	for _, m := range boldPattern.FindAllStringSubmatch(text, -1) {
		if name := strings.TrimSpace(m[1]); name != "" {
			names = append(names, name)
		}
	}
	return names
}
