// Package sentiment scores and classifies free-form text.
//
// LexiconScorer averages per-word polarity and subjectivity from an embedded lexicon, with
// intensifier and negation handling. VaderScorer wraps govader as an alternative model.
// Classifier maps polarity to a label and extracts the top keywords from a token list.
// All types are immutable after construction and safe for concurrent use.
package sentiment
