package vaultcrypto

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	bip39 "github.com/tyler-smith/go-bip39"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

var (
	// whitespaceRegex matches one or more whitespace characters.
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// numberedListRegex matches numbered list prefixes like "1." "2)" "3:"
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)

	// bulletListRegex matches bullet prefixes like "- " "* " "• "
	bulletListRegex = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// NewMnemonic encodes entropy as a BIP39 mnemonic phrase.
func NewMnemonic(entropy []byte) (string, error) {
	return bip39.NewMnemonic(entropy)
}

// EntropyFromMnemonic recovers the entropy behind a mnemonic phrase.
// The phrase is normalized and fully validated (word count, word list,
// checksum) before conversion.
func EntropyFromMnemonic(mnemonic string) ([]byte, error) {
	normalized := NormalizeMnemonic(mnemonic)
	if err := ValidateMnemonic(normalized); err != nil {
		return nil, err
	}
	return bip39.EntropyFromMnemonic(normalized)
}

// SeedFromMnemonic derives the BIP39 seed for a mnemonic phrase with an
// empty passphrase.
func SeedFromMnemonic(mnemonic string) []byte {
	return bip39.NewSeed(NormalizeMnemonic(mnemonic), "")
}

// ValidateMnemonic checks if a mnemonic phrase is valid according to BIP39.
// On failure the returned error carries per-word typo suggestions when any
// word is close to a real BIP39 word.
func ValidateMnemonic(mnemonic string) error {
	if mnemonic == "" {
		return lanterr.ErrInvalidMnemonic
	}

	normalized := NormalizeMnemonic(mnemonic)

	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return lanterr.WithSuggestion(lanterr.ErrInvalidMnemonic,
			"a mnemonic phrase has 12 or 24 words")
	}

	if !bip39.IsMnemonicValid(normalized) {
		if hints := suggestionHints(words); len(hints) > 0 {
			return lanterr.WithDetails(lanterr.ErrInvalidMnemonic, hints)
		}
		return lanterr.ErrInvalidMnemonic
	}

	return nil
}

// NormalizeMnemonic cleans pasted mnemonic input: lowercases, strips numbered
// and bullet list prefixes, turns commas into spaces, and collapses
// whitespace.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// MaxTypoDistance is the maximum Levenshtein distance to consider a
// suggestion. Words further than 2 edits away are too different to suggest.
const MaxTypoDistance = 2

// SuggestWord finds the closest BIP39 word to the input using Levenshtein
// distance. Returns empty string if nothing is within MaxTypoDistance.
func SuggestWord(input string) string {
	input = strings.ToLower(input)

	best := MaxTypoDistance + 1
	var suggestion string

	for _, word := range bip39.GetWordList() {
		dist := levenshtein.ComputeDistance(input, word)
		if dist == 0 {
			return word
		}
		if dist < best {
			best = dist
			suggestion = word
		}
	}

	return suggestion
}

// suggestionHints maps each misspelled word to its closest BIP39 word.
func suggestionHints(words []string) map[string]string {
	var hints map[string]string
	for _, word := range words {
		if isWordListWord(word) {
			continue
		}
		if s := SuggestWord(word); s != "" {
			if hints == nil {
				hints = make(map[string]string)
			}
			hints[word] = s
		}
	}
	return hints
}

func isWordListWord(word string) bool {
	_, ok := bip39.GetWordIndex(strings.ToLower(word))
	return ok
}
