package sentiment

import (
	"strings"
	"unicode"
)

// clitics are the contraction endings split off into their own token.
var clitics = map[string]struct{}{
	"s": {}, "re": {}, "ve": {}, "ll": {}, "d": {}, "m": {},
}

// Tokenize returns the lowercased word tokens of text in their original order.
// Punctuation is dropped. Contractions are split Treebank style, so "it's"
// yields "it" and "'s" and "couldn't" yields "could" and "n't". Any other
// apostrophe inside a word separates it.
func Tokenize(text string) []string {
	runes := []rune(text)
	tokens := make([]string, 0, len(runes)/5+1)

	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, splitContraction(b.String())...)
			b.Reset()
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case isApostrophe(r) && b.Len() > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			b.WriteRune('\'')
		default:
			flush()
		}
	}
	flush()

	return tokens
}

func splitContraction(word string) []string {
	i := strings.IndexByte(word, '\'')
	if i < 0 {
		return []string{word}
	}

	stem, rest := word[:i], word[i+1:]
	if !strings.Contains(rest, "'") {
		if rest == "t" && len(stem) > 1 && strings.HasSuffix(stem, "n") {
			return []string{stem[:len(stem)-1], "n't"}
		}
		if _, ok := clitics[rest]; ok {
			return []string{stem, "'" + rest}
		}
	}
	return strings.Split(word, "'")
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}
