// Package store defines the persistence contract for cards and their
// delivery bookkeeping, the shared error taxonomy, transaction helpers and
// the transient-fault retry policy applied at service call sites.
package store
