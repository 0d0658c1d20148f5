package keystore

import (
	"math"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"
)

// MaxTypoDistance is the maximum Levenshtein distance to consider a
// suggestion worth surfacing. Words further than this are too different to
// guess at.
const MaxTypoDistance = 2

// TypoInfo describes one word of an otherwise-plausible mnemonic that is not
// in the BIP-39 word list, along with the closest real word if one is close
// enough to guess.
type TypoInfo struct {
	Index      int
	Word       string
	Suggestion string
	Distance   int
}

// SuggestWord finds the closest BIP-39 word to input by Levenshtein distance.
// Returns "" if nothing is within MaxTypoDistance.
func SuggestWord(input string) string {
	input = strings.ToLower(input)

	minDist := math.MaxInt
	var suggestion string

	for _, word := range bip39.GetWordList() {
		dist := levenshtein.ComputeDistance(input, word)
		if dist == 0 {
			return word
		}
		if dist < minDist {
			minDist = dist
			suggestion = word
		}
	}

	if minDist <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// DetectTypos scans a space-separated mnemonic and reports words absent from
// the BIP-39 word list, each with its nearest suggestion if any.
func DetectTypos(mnemonic string) []TypoInfo {
	if mnemonic == "" {
		return nil
	}

	words := strings.Fields(strings.ToLower(strings.TrimSpace(mnemonic)))
	wordSet := bip39.GetWordList()

	var typos []TypoInfo
	for i, word := range words {
		if containsWord(wordSet, word) {
			continue
		}
		suggestion := SuggestWord(word)
		distance := 0
		if suggestion != "" {
			distance = levenshtein.ComputeDistance(word, suggestion)
		}
		typos = append(typos, TypoInfo{Index: i, Word: word, Suggestion: suggestion, Distance: distance})
	}
	return typos
}

// FormatTypoSuggestions renders DetectTypos output as a human-readable
// multi-line message, one line per typo.
func FormatTypoSuggestions(typos []TypoInfo) string {
	if len(typos) == 0 {
		return ""
	}

	var b strings.Builder
	for i, typo := range typos {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("word ")
		b.WriteString(strconv.Itoa(typo.Index + 1))
		b.WriteString(": '")
		b.WriteString(typo.Word)
		b.WriteByte('\'')
		if typo.Suggestion != "" {
			b.WriteString(" - did you mean '")
			b.WriteString(typo.Suggestion)
			b.WriteString("'?")
		} else {
			b.WriteString(" is not a valid BIP-39 word")
		}
	}
	return b.String()
}

func containsWord(words []string, target string) bool {
	for _, w := range words {
		if w == target {
			return true
		}
	}
	return false
}
