// Package mocks provides test doubles for the store and gateway contracts.
//
// MemoryCardStore is a real in-memory CardStore with the full conditional
// transition semantics, so service tests exercise the same conflict and
// idempotency behavior the postgres adapter provides. MockGateway is a
// scriptable messaging gateway with per-call hooks and call tracking.
package mocks
