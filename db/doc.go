// Package db runs parsed statements against the in-memory store and
// shapes the results for display.
package db
