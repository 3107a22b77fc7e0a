package store

import (
	"fmt"

	"github.com/daimatz/classinfo/pkg/info"
)

// ErrNotOpen is returned when a class is scanned before Open or after
// Close. It matches info.ErrScannerUnavailable, so the cache records
// nothing for the class.
var ErrNotOpen = fmt.Errorf("store is not open: %w", info.ErrScannerUnavailable)

// ErrorKind classifies why a class scan failed.
type ErrorKind uint8

const (
	// ScanNotFound means no classpath entry holds the class resource.
	ScanNotFound ErrorKind = iota
	// ScanOpenFailed means the resource exists but could not be opened.
	ScanOpenFailed
	// ScanDecodeFailed means the bytes are not a valid class file.
	ScanDecodeFailed
	// ScanProtocolViolation means the class file contradicts the request,
	// such as declaring another class name.
	ScanProtocolViolation
	// ScanCloseFailed means the class was read but its stream failed to
	// close.
	ScanCloseFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ScanNotFound:
		return "not found"
	case ScanOpenFailed:
		return "open failed"
	case ScanDecodeFailed:
		return "decode failed"
	case ScanProtocolViolation:
		return "protocol violation"
	case ScanCloseFailed:
		return "close failed"
	default:
		return "unknown"
	}
}

// ScanError reports the failure to scan one class.
type ScanError struct {
	ClassName string
	Kind      ErrorKind
	Err       error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanning %s: %s: %v", e.ClassName, e.Kind, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
