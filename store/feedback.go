package store

// DefaultRating is used when a rating cell cannot be parsed.
const DefaultRating = 3.0

// Feedback is the self-review recorded for one day.
type Feedback struct {
	Rating   float64 `json:"rating"`
	Comments string  `json:"comments"`
}

// FeedbackSet maps a date key to that day's feedback.
type FeedbackSet map[string]Feedback
