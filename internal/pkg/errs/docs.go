// Package errs provides standardized error types for the order pipeline.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes error types for the failure kinds the pipeline distinguishes:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: malformed
//     or incomplete input, rejected before any side effect
//   - ObjectNotFoundError: a referenced order does not exist
//   - PersistenceError: the order store failed or rejected a write
//   - ProcessingError: the processing routine failed transiently
//   - TimeoutError: a status query received no correlated reply in time
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method so errors.Is matches the sentinel
package errs
