// Package testinfra starts the throwaway PostgreSQL and RabbitMQ containers
// used by integration suites. It is imported from _test.go files only.
package testinfra
