package billing

import "math"

// Billing rates. Costs are computed client-side from usage reported
// by the respective services and trusted as-is.
const (
	// InputTokenRate is the price per 1000 prompt tokens
	InputTokenRate = 0.00015
	// OutputTokenRate is the price per 1000 completion tokens
	OutputTokenRate = 0.0006
	// TranscriptionRate is the price per minute of transcribed audio
	TranscriptionRate = 0.006
)

// AssistantCost prices one AI assistant call
func AssistantCost(inputTokens, outputTokens int) float64 {
	inputCost := float64(inputTokens) / 1000 * InputTokenRate
	outputCost := float64(outputTokens) / 1000 * OutputTokenRate
	return roundCost(inputCost + outputCost)
}

// TranscriptionCost prices transcribed audio by duration.
// The same rate applies whether the transcript was generated for
// this user or replayed from another user's cached record.
func TranscriptionCost(durationSeconds float64) float64 {
	return roundCost(durationSeconds / 60 * TranscriptionRate)
}

// DurationMinutes converts seconds to minutes, rounded to two
// decimals the way usage is displayed
func DurationMinutes(durationSeconds float64) float64 {
	return math.Round(durationSeconds/60*100) / 100
}

// costs are kept at 6 decimal places
func roundCost(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
