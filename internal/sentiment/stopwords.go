package sentiment

// defaultStopwords are common English function words that never become keywords.
var defaultStopwords = []string{
	"the", "is", "at", "which", "on", "a", "an", "as", "are", "was", "were", "been", "be",
	"have", "has", "had", "do", "does", "did", "will", "would", "could", "should", "may",
	"might", "must", "can", "this", "that", "these", "those", "i", "you", "he", "she", "it",
	"we", "they", "them", "their", "what", "who", "when", "where", "why", "how", "and", "or",
	"but", "not", "no", "yes", "to", "from", "in", "out", "up", "down", "with", "by", "for", "of",
}

// DefaultStopwords returns a copy of the built-in stop-word list.
func DefaultStopwords() []string {
	out := make([]string, len(defaultStopwords))
	copy(out, defaultStopwords)
	return out
}
