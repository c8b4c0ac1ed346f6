// Package postgres provides PostgreSQL implementations of the store
// interfaces. State transitions are single conditional UPDATEs keyed on the
// card's current status, which is what serializes concurrent ticks and
// manual triggers without long-lived locks.
package postgres
