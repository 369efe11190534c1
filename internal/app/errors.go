package app

import "fmt"

type ErrorKind string

const (
	KindAuthentication ErrorKind = "crm_authentication"
	KindQuery          ErrorKind = "crm_query"
	KindInternal       ErrorKind = "internal"
)

// RobotError is a failure while processing an event bundle. Only the kind and
// reference reach the wave; the wrapped error stays in the operator log.
type RobotError struct {
	Kind ErrorKind
	Ref  string
	Err  error

	stack []byte
}

func (e *RobotError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RobotError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UserMessage is the text written into the wave for this error.
func (e *RobotError) UserMessage() string {
	var message string
	switch e.Kind {
	case KindAuthentication:
		message = "I could not sign in to Salesforce, so I cannot look up accounts right now."
	case KindQuery:
		message = "I could not look up that account in Salesforce right now."
	default:
		message = "Something went wrong while I was reading this wave."
	}
	if e.Ref == "" {
		return message
	}
	return message + "\nReference: " + e.Ref
}

func robotError(kind ErrorKind, err error) *RobotError {
	return &RobotError{
		Kind: kind,
		Err:  err,
	}
}
