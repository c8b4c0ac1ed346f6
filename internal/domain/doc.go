// Package domain contains the core entities of the interval learning system:
// the Card and its lifecycle states, grades and reminder modes. Entities carry
// their own validation; behavior that computes new scheduling state lives in
// the schedule subpackage and returns new values rather than mutating.
package domain
