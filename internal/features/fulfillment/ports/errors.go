package ports

import "fmt"

// CommerceError wraps a read/write failure against the commerce platform,
// carrying the platform's raw error detail. Never retried locally.
type CommerceError struct {
	// Detail is the platform-supplied error description.
	Detail string
	// Err is the underlying transport or decoding error, if any.
	Err error
}

func (e *CommerceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("commerce platform error: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("commerce platform error: %s", e.Detail)
}

func (e *CommerceError) Unwrap() error { return e.Err }

// IssuanceError wraps a non-success response from the payments platform.
// It halts further issuance for the order immediately.
type IssuanceError struct {
	// Detail is the payments platform's error description.
	Detail string
	// Err is the underlying transport or decoding error, if any.
	Err error
}

func (e *IssuanceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gift card issuance error: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("gift card issuance error: %s", e.Detail)
}

func (e *IssuanceError) Unwrap() error { return e.Err }

// NotificationError wraps a delivery failure. The highest-severity failure in
// the system: codes already exist and were already paid for, but the customer
// has not received them.
type NotificationError struct {
	// Detail describes the delivery failure.
	Detail string
	// Err is the underlying transport error, if any.
	Err error
}

func (e *NotificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notification error: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("notification error: %s", e.Detail)
}

func (e *NotificationError) Unwrap() error { return e.Err }
