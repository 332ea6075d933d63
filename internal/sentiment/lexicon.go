package sentiment

import (
	_ "embed"
	"strconv"
	"strings"
)

//go:embed lexicon.txt
var defaultLexiconData string

// defaultLexicon is parsed once at init and never mutated.
var defaultLexicon lexicon

func init() {
	defaultLexicon = parseLexicon(defaultLexiconData)
}

type entry struct {
	polarity     float64
	subjectivity float64
	intensity    float64
}

// isModifier reports whether the entry scales the next scored word instead of
// being scored itself.
func (e entry) isModifier() bool {
	return e.polarity == 0 && e.intensity != 1
}

type lexicon map[string]entry

// parseLexicon parses whitespace-separated "word polarity subjectivity intensity"
// lines. Blank lines, comments and malformed lines are skipped.
func parseLexicon(raw string) lexicon {
	m := make(lexicon, 256)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 4 {
			continue
		}

		values := make([]float64, 3)
		ok := true
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				ok = false
				break
			}
			values[i] = v
		}
		if !ok {
			continue
		}

		e := entry{polarity: values[0], subjectivity: values[1], intensity: values[2]}
		if e.polarity < -1 || e.polarity > 1 || e.subjectivity < 0 || e.subjectivity > 1 || e.intensity <= 0 {
			continue
		}

		m[strings.ToLower(fields[0])] = e
	}
	return m
}
