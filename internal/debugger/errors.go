package debugger

import (
	"fmt"
	"strings"
)

// InputError reports a request the debugger cannot act on: a malformed
// signature, an unbuildable draft, an empty network list.
type InputError struct {
	Msg string
	Err error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *InputError) Unwrap() error { return e.Err }

// NotFoundError reports that every probed network answered "unknown
// signature". Networks lists them in probe order.
type NotFoundError struct {
	Signature string
	Networks  []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found on any network (tried %s)",
		e.Signature, strings.Join(e.Networks, ", "))
}

// TransportError reports that a network could not be asked, as opposed to a
// network answering not-found.
type TransportError struct {
	Network string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network %s unreachable: %v", e.Network, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
