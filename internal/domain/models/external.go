package models

// ClassifierVerdict is the external classification service's opinion
// of a message. A degraded call yields a zero-confidence, non-scam
// verdict carrying the failure reason instead of an error.
type ClassifierVerdict struct {
	IsScam     bool     `json:"is_scam"`
	ScamType   ScamType `json:"scam_type"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// AssistExtraction is the external extraction service's structured
// output: the standard entity kinds plus a freeform sender identity.
type AssistExtraction struct {
	Entities       Intelligence `json:"entities"`
	SenderIdentity string       `json:"sender_identity,omitempty"`
}
