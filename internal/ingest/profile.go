package ingest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pscheid92/textpulse/internal/sentiment"
)

const maxProfileRowCap = 100_000

// Profile tunes keyword extraction and batch ingestion. It is loaded once at
// startup and never modified afterwards.
type Profile struct {
	// Stopwords replaces the built-in stop-word list when non-empty.
	Stopwords []string `yaml:"stopwords"`
	// ExtraStopwords are added to the effective stop-word list.
	ExtraStopwords []string `yaml:"extra_stopwords"`
	TextColumns    []string `yaml:"text_columns"`
	RowCap         int      `yaml:"row_cap"`
}

// DefaultProfile returns the built-in profile.
func DefaultProfile() *Profile {
	p := &Profile{}
	applyDefaults(p)
	return p
}

// LoadProfile reads a YAML profile from path. An empty path yields the default profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile and fills unset fields with defaults.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse analysis profile: %w", err)
	}

	applyDefaults(&p)

	if err := validateProfile(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// EffectiveStopwords returns the stop words the classifier should use.
func (p *Profile) EffectiveStopwords() []string {
	words := make([]string, 0, len(p.Stopwords)+len(p.ExtraStopwords))
	words = append(words, p.Stopwords...)
	return append(words, p.ExtraStopwords...)
}

func applyDefaults(p *Profile) {
	if len(p.Stopwords) == 0 {
		p.Stopwords = sentiment.DefaultStopwords()
	}
	if len(p.TextColumns) == 0 {
		p.TextColumns = append([]string(nil), DefaultTextColumns...)
	}
	if p.RowCap == 0 {
		p.RowCap = DefaultRowCap
	}
}

func validateProfile(p *Profile) error {
	if p.RowCap < 0 || p.RowCap > maxProfileRowCap {
		return fmt.Errorf("row_cap must be between 1 and %d, got %d", maxProfileRowCap, p.RowCap)
	}
	for _, c := range p.TextColumns {
		if c == "" {
			return errors.New("text_columns must not contain empty names")
		}
	}
	return nil
}
