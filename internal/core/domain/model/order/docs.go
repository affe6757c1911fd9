// Package order provides the Order aggregate and its lifecycle state machine.
//
// The package includes:
//   - Order: the aggregate root holding the customer request, the processing
//     status and the retry bookkeeping
//   - Status: a state machine that enforces valid order status transitions
//
// Key business rules:
//   - Orders require a customer name, a product, a positive quantity and a
//     non-negative amount
//   - Status follows Pending -> Processing -> {Completed, Failed}
//   - A retried attempt re-enters Processing and never reverts to Pending
//   - Completed and Failed are terminal
//   - The retry count never decreases; quantity and amount never change
package order
