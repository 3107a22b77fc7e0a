package info

import "fmt"

type constError string

func (errStr constError) Error() string { return string(errStr) }

const (
	// ErrInvalidCapacity may be returned from [NewCache].
	ErrInvalidCapacity = constError("invalid capacity")
	// ErrNameMismatch reports bytecode whose declared class name differs
	// from the name it was loaded for.
	ErrNameMismatch = constError("class name mismatch")
	// ErrDuplicatePackage reports a second package-info for a package that
	// already has a record.
	ErrDuplicatePackage = constError("duplicate package")
	// ErrScannerUnavailable reports a scanner that cannot serve any class,
	// such as one whose classpath is not open. A Scanner wraps it so the
	// cache records nothing for the class.
	ErrScannerUnavailable = constError("scanner unavailable")
)

func invalidCapacityError(capacity int) error {
	return fmt.Errorf("%w: must be >=1 but %d was requested", ErrInvalidCapacity, capacity)
}

// VisitError is returned by the population visitors when bytecode violates
// the expectations of the scan that requested it. It aborts population of
// that one class only.
type VisitError struct {
	ClassName string
	Err       error
}

func (e *VisitError) Error() string {
	return fmt.Sprintf("visiting %s: %v", e.ClassName, e.Err)
}

func (e *VisitError) Unwrap() error { return e.Err }
