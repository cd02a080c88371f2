// Package errors provides error handling for ceclust.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping, hints)
// and declares the failure kinds a reconciliation run can end with.
//
//	if err := st.Ping(ctx); err != nil {
//	    return errors.MarkStore(err, "cannot reach annotation store")
//	}
//
//	if errors.IsClusterFormat(err) {
//	    // fix the input file
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	WithStack   = crdb.WithStack
	WithMessage = crdb.WithMessage
	Mark        = crdb.Mark
)

// User-facing messages
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	GetStack  = crdb.GetReportableStackTrace
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Fatal failure kinds. Wrap or Mark with these and test with Is.
var (
	// ErrStoreConnectivity indicates the annotation store is unreachable or
	// rejected a query.
	ErrStoreConnectivity = New("annotation store unavailable")

	// ErrClusterFormat indicates a clustering output row that cannot be parsed
	// into a (representative, member) accession pair.
	ErrClusterFormat = New("malformed cluster row")
)

// MarkStore wraps err with a message and marks it as a store connectivity failure.
func MarkStore(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Mark(Wrapf(err, format, args...), ErrStoreConnectivity)
}

// NewClusterFormat creates a cluster format error for the given input line.
func NewClusterFormat(line int, format string, args ...interface{}) error {
	err := Wrapf(Newf(format, args...), "line %d", line)
	return Mark(err, ErrClusterFormat)
}

// IsStoreConnectivity reports whether err is or wraps a store connectivity failure.
func IsStoreConnectivity(err error) bool {
	return err != nil && Is(err, ErrStoreConnectivity)
}

// IsClusterFormat reports whether err is or wraps a cluster format failure.
func IsClusterFormat(err error) bool {
	return err != nil && Is(err, ErrClusterFormat)
}
