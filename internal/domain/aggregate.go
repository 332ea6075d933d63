package domain

// StatsResult summarizes a user's records by label.
type StatsResult struct {
	Total       int     `json:"total"`
	Positive    int     `json:"positive"`
	Negative    int     `json:"negative"`
	Neutral     int     `json:"neutral"`
	AvgPolarity float64 `json:"avg_polarity"`
}

// TrendPoint holds the label counts of one calendar date (UTC, YYYY-MM-DD).
type TrendPoint struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
}

// KeywordCount is one leaderboard entry.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Summary is the full read-side fold over a user's records. Trends holds every
// active date in ascending order and Keywords the complete ranking, so that
// windowed queries can be answered by slicing.
type Summary struct {
	Stats    StatsResult    `json:"stats"`
	Trends   []TrendPoint   `json:"trends"`
	Keywords []KeywordCount `json:"keywords"`
}
