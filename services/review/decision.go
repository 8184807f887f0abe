package review

// DecisionType is the enumerated outcome a review model must choose
type DecisionType string

const (
	DecisionSpeak            DecisionType = "SPEAK"
	DecisionSilence          DecisionType = "SILENCE"
	DecisionExplainConflict  DecisionType = "EXPLAIN_CONFLICT"
	DecisionAskLightQuestion DecisionType = "ASK_LIGHT_QUESTION"
)

var decisionTypes = []DecisionType{
	DecisionSpeak,
	DecisionSilence,
	DecisionExplainConflict,
	DecisionAskLightQuestion,
}

// Valid reports whether t is one of the enumerated decision types
func (t DecisionType) Valid() bool {
	for _, known := range decisionTypes {
		if t == known {
			return true
		}
	}
	return false
}

func decisionTypeNames() []string {
	names := make([]string, len(decisionTypes))
	for i, t := range decisionTypes {
		names[i] = string(t)
	}
	return names
}

// MinReviewWords is the minimum length of a SPEAK review
const MinReviewWords = 500

// Decision is a validated model decision. Exactly one of ReviewText,
// Reason, Explanation and LightQuestion is set, matching DecisionType.
type Decision struct {
	DecisionType  DecisionType `json:"decision_type" validate:"required,oneof=SPEAK SILENCE EXPLAIN_CONFLICT ASK_LIGHT_QUESTION"`
	Confidence    float64      `json:"confidence"`
	ReviewText    string       `json:"review_text,omitempty" validate:"required_if=DecisionType SPEAK,omitempty,minwords=500"`
	Reason        string       `json:"reason,omitempty" validate:"required_if=DecisionType SILENCE"`
	Explanation   string       `json:"explanation,omitempty" validate:"required_if=DecisionType EXPLAIN_CONFLICT"`
	LightQuestion string       `json:"light_question,omitempty" validate:"required_if=DecisionType ASK_LIGHT_QUESTION"`

	// Optional fields, kept only when well-typed
	AnchorsUsed     []string      `json:"anchors_used,omitempty"`
	Mismatches      []interface{} `json:"mismatches,omitempty"`
	StructuralMatch *bool         `json:"structural_match,omitempty"`
}

// BranchText returns the text field selected by DecisionType
func (d *Decision) BranchText() string {
	switch d.DecisionType {
	case DecisionSpeak:
		return d.ReviewText
	case DecisionSilence:
		return d.Reason
	case DecisionExplainConflict:
		return d.Explanation
	case DecisionAskLightQuestion:
		return d.LightQuestion
	}
	return ""
}
