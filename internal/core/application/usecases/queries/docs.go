// Package queries contains read-only operations over orders.
//
// GetOrder and ListOrders read the store directly with raw SQL through GORM.
// QueryOrderStatus goes through the status request/reply channel instead, so
// that gateway reads observe the same store view the workers commit to.
package queries
