package command

import "fmt"

// Kind classifies a command failure.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindPermission    Kind = "permission"
	KindUpstream      Kind = "upstream"
	KindConfiguration Kind = "configuration"
	KindInternal      Kind = "internal"
)

// Failure is the single error type handlers return. UserMessage is shown to
// the invoker; Err is logged and never shown.
type Failure struct {
	Kind        Kind
	UserMessage string
	Err         error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.UserMessage, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.UserMessage)
}

func (f *Failure) Unwrap() error { return f.Err }

func validationFailure(msg string) *Failure {
	return &Failure{Kind: KindValidation, UserMessage: msg}
}

func upstreamFailure(msg string, err error) *Failure {
	return &Failure{Kind: KindUpstream, UserMessage: msg, Err: err}
}

func internalFailure(err error) *Failure {
	return &Failure{Kind: KindInternal, UserMessage: msgInternal, Err: err}
}
