// Package kernel provides core domain primitives shared by the order model.
//
// The package includes:
//   - Amount: a non-negative monetary value with at most two fractional digits
//
// Primitives are immutable value objects guarded against zero-value use, so
// they are safe to share between goroutines.
package kernel
