package dataset

import "strings"

// EntrySet accumulates accepted lines in order and rejects repeats of a
// canonical key.
type EntrySet struct {
	keys  map[string]struct{}
	lines []string
}

// NewEntrySet returns an empty set.
func NewEntrySet() *EntrySet {
	return &EntrySet{keys: make(map[string]struct{})}
}

// AddStats reports what happened to the lines of one response.
type AddStats struct {
	Added      int
	Duplicates int
	Invalid    int
}

// Add stores line under key. It returns false if the key was already present.
func (s *EntrySet) Add(key, line string) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	s.lines = append(s.lines, line)
	return true
}

// Has reports whether key was accepted.
func (s *EntrySet) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// AddOutput splits raw model output into lines and adds every valid,
// unseen record. Blank lines are skipped without being counted.
func (s *EntrySet) AddOutput(raw string) AddStats {
	var stats AddStats
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		_, key, err := ParseRecord(line)
		if err != nil {
			stats.Invalid++
			continue
		}
		if s.Add(key, line) {
			stats.Added++
		} else {
			stats.Duplicates++
		}
	}
	return stats
}

// Len returns the number of unique records.
func (s *EntrySet) Len() int {
	return len(s.lines)
}

// Lines returns the accepted lines in acceptance order.
func (s *EntrySet) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// JSONL joins the accepted lines, each terminated by a newline.
func (s *EntrySet) JSONL() string {
	if len(s.lines) == 0 {
		return ""
	}
	return strings.Join(s.lines, "\n") + "\n"
}
