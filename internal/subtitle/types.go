package subtitle

// Cue represents a single timed subtitle entry.
// The JSON field names match the wire format the subtitle server
// stores records in.
type Cue struct {
	ID           int     `json:"id"`           // 1-based ordinal, stable display key
	StartSeconds float64 `json:"startSeconds"` // start position, seconds
	EndSeconds   float64 `json:"endSeconds"`   // end position, seconds
	Text         string  `json:"text"`         // cue text, may span multiple lines
}

// Track is an ordered sequence of cues, kept in non-decreasing
// start order
type Track []Cue

// Duration returns the end time of the last cue, in seconds
func (t Track) Duration() float64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].EndSeconds
}

// Renumber rewrites cue ids to a dense 1-based sequence.
// Used after edits that insert or remove cues.
func (t Track) Renumber() {
	for i := range t {
		t[i].ID = i + 1
	}
}
