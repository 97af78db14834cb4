package query

import "fmt"

// SyntaxError reports malformed query or path option text
type SyntaxError struct {
	Msg   string
	Token string
	Text  string
	Err   error
}

func (e *SyntaxError) Error() string {
	msg := e.Msg
	if e.Token != "" {
		msg += fmt.Sprintf(" but got [%s]", e.Token)
	}
	if e.Text != "" {
		msg += fmt.Sprintf(" in [%s]", e.Text)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func newSyntaxError(msg, token, text string) *SyntaxError {
	return &SyntaxError{Msg: msg, Token: token, Text: text}
}
