package event

import (
	"fmt"
)

// DuplicateRegistrationError reports an event type whose identifier or type
// name was already registered. Type registration is write-once; hitting this
// at startup is fatal for the registering module.
type DuplicateRegistrationError struct {
	ID   ID
	Type Type
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("event type already registered: id=%s type=%s", e.ID, e.Type)
}

// InvalidHandlerError reports a malformed handler binding. The owning
// subsystem's registration is aborted as a whole; nothing is partially added.
type InvalidHandlerError struct {
	Subsystem string
	Binding   int
	Reason    string
}

func (e *InvalidHandlerError) Error() string {
	return fmt.Sprintf("invalid handler binding %d in subsystem %q: %s", e.Binding, e.Subsystem, e.Reason)
}
