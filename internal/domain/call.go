package domain

import "time"

// Call is a recorded client call owned by an agent.
type Call struct {
	Meta          `bson:",inline"`
	Agent         string         `bson:"agent" json:"agent"`
	Lead          string         `bson:"lead,omitempty" json:"lead,omitempty"`
	ClientName    string         `bson:"clientName" json:"clientName" validate:"required"`
	Duration      *int           `bson:"duration" json:"duration" validate:"required,gte=0"`
	RecordingURL  string         `bson:"recordingUrl,omitempty" json:"recordingUrl,omitempty" validate:"omitempty,url"`
	Transcription string         `bson:"transcription,omitempty" json:"transcription,omitempty"`
	Sentiment     string         `bson:"sentiment" json:"sentiment" validate:"oneof=positive neutral negative hesitant"`
	AIAnalysis    *CallAnalysis  `bson:"aiAnalysis,omitempty" json:"aiAnalysis,omitempty"`
	CoachFeedback *CoachFeedback `bson:"coachFeedback,omitempty" json:"coachFeedback,omitempty"`
	CallDate      time.Time      `bson:"callDate" json:"callDate"`
}

// CallAnalysis is the enrichment attached by an external analyzer.
type CallAnalysis struct {
	KeyPoints           []string `bson:"keyPoints" json:"keyPoints"`
	ClientInterest      string   `bson:"clientInterest" json:"clientInterest"`
	MissedOpportunities []string `bson:"missedOpportunities" json:"missedOpportunities"`
	SuggestedActions    []string `bson:"suggestedActions" json:"suggestedActions"`
	ConfidenceScore     float64  `bson:"confidenceScore" json:"confidenceScore"`
}

// CoachFeedback is a one-time review of a call.
type CoachFeedback struct {
	CoachID           string    `bson:"coachId" json:"coachId"`
	Feedback          string    `bson:"feedback" json:"feedback" validate:"required"`
	Rating            int       `bson:"rating" json:"rating" validate:"required,min=1,max=5"`
	Strengths         []string  `bson:"strengths" json:"strengths"`
	Improvements      []string  `bson:"improvements" json:"improvements"`
	CorrectiveScripts []string  `bson:"correctiveScripts" json:"correctiveScripts"`
	ReviewedAt        time.Time `bson:"reviewedAt" json:"reviewedAt"`
}

func (c *Call) AssignOwner(p Principal) { c.Agent = p.UserID }

// KeepOwner also pins the fields only the server may write.
func (c *Call) KeepOwner(prev *Call) {
	c.Agent = prev.Agent
	c.AIAnalysis = prev.AIAnalysis
	c.CoachFeedback = prev.CoachFeedback
}

func (c *Call) ApplyDefaults() {
	if c.Sentiment == "" {
		c.Sentiment = "neutral"
	}
	if c.CallDate.IsZero() {
		c.CallDate = time.Now().UTC().Truncate(time.Millisecond)
	}
}
