// Package errors provides the error taxonomy shared by all prodline
// packages.
//
// Errors fall into three classes:
//
//   - transient: best-effort conditions such as a worker join timeout;
//     callers log and continue.
//   - invalid: bad input or configuration; surfaced synchronously to the
//     caller and never partially applied.
//   - fatal: unrecoverable conditions that stop processing.
//
// The Wrap* helpers attach "component.method: action failed" context and
// a class in one step:
//
//	if err := cfg.Validate(); err != nil {
//	    return errors.WrapInvalid(err, "Line", "New", "validate config")
//	}
//
// Classification survives wrapping: IsInvalid, IsTransient and IsFatal
// unwrap through both ClassifiedError and plain fmt wrapping.
package errors
