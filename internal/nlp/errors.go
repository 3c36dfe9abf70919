package nlp

import "fmt"

// Reason classifies why an instruction could not be turned into an intent.
type Reason string

const (
	ReasonUnrecognizedShape Reason = "unrecognized_shape"
	ReasonMissingParameter  Reason = "missing_parameter"
	ReasonOutOfRange        Reason = "out_of_range"
)

// ParseError is the only error Parse returns.
type ParseError struct {
	Text   string
	Reason Reason
	// Slot names the parameter involved, when there is one.
	Slot   string
	Detail string
}

func (e *ParseError) Error() string {
	if e.Slot != "" {
		return fmt.Sprintf("%s (%s): %s", e.Reason, e.Slot, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}
