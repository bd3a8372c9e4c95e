package domain

import "time"

// Mail is an outbound email.
type Mail struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// RateDecision is the outcome of a rate limit check.
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}
