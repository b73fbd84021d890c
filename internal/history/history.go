// Package history holds the measurement log the monitor keeps between runs.
// History is treated as a value: operations return a new History and never
// mutate the one the caller holds.
package history

import "time"

// RetentionCap is the maximum number of measurements kept per URL.
// Appending beyond the cap evicts the oldest entries first.
const RetentionCap = 52

// ScoreSet maps a Lighthouse category name to its 0-100 integer score.
type ScoreSet map[string]int

// Measurement is one completed observation of a URL. Immutable once created.
type Measurement struct {
	URL       string
	Timestamp time.Time
	Scores    ScoreSet
}

// History maps a URL to its measurements, ordered oldest to newest.
type History map[string][]Measurement

// Record returns a new History with m appended to the sequence for m.URL,
// creating the sequence if absent. When the sequence would exceed
// RetentionCap, the oldest entries are dropped until it fits. The receiver
// is left untouched.
func (h History) Record(m Measurement) History {
	out := make(History, len(h)+1)
	for url, ms := range h {
		out[url] = ms
	}

	seq := make([]Measurement, 0, len(h[m.URL])+1)
	seq = append(seq, h[m.URL]...)
	seq = append(seq, m)
	if len(seq) > RetentionCap {
		seq = seq[len(seq)-RetentionCap:]
	}
	out[m.URL] = seq

	return out
}

// Latest returns the newest Measurement for url. The second return value is
// false when the URL has never been measured.
func (h History) Latest(url string) (Measurement, bool) {
	seq := h[url]
	if len(seq) == 0 {
		return Measurement{}, false
	}
	return seq[len(seq)-1], true
}

// Len reports the number of stored measurements for url.
func (h History) Len(url string) int {
	return len(h[url])
}
