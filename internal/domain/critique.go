package domain

// CritiqueResult is the ephemeral verdict on a single free-text answer. It is
// consumed immediately by the caller to decide whether to re-prompt and is
// never persisted.
type CritiqueResult struct {
	Accepted    bool     `json:"accepted"`
	TooShort    bool     `json:"too_short,omitempty"`
	Vague       bool     `json:"vague,omitempty"`
	Unrealistic bool     `json:"unrealistic,omitempty"`
	Reasons     []string `json:"reasons,omitempty"`
}

// Quote is a short quotation shown at phase transitions. The catalog is
// loaded once at process start and never mutated.
type Quote struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Author   string `json:"author"`
	Category string `json:"category"`
}
