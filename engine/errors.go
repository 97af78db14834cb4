package engine

import "fmt"

// UnknownOperationError is returned by Explain for an operation the engine does not have
type UnknownOperationError struct {
	Operation string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %s, expected one of %v", e.Operation, Operations())
}

// Operations lists the operation names Explain accepts
func Operations() []string {
	var names []string
	for m, name := range modeNames {
		if mode(m) != modeSecondary {
			names = append(names, name)
		}
	}
	return names
}
