package domain

// UserSummary is the embedded form of a referenced user in read responses.
type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// LeadSummary is the embedded form of a referenced lead.
type LeadSummary struct {
	ID         string `json:"id"`
	ClientName string `json:"clientName"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
}

// PropertySummary is the embedded form of a referenced property.
type PropertySummary struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Address Address `json:"address"`
	Status  string  `json:"status"`
}
