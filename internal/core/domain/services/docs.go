// Package services provides domain services for order processing that do not
// belong to the Order aggregate itself.
//
// The package includes:
//   - RetryPolicy: strategies deciding how long a failed order waits before its
//     next attempt (immediate, fixed, linear, exponential)
//   - OrderProcessor: the processing routine contract and its simulated
//     implementation used by the reference deployment
package services
