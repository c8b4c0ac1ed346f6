// Package api contains the thin operational HTTP surface the surrounding
// application uses to reach the scheduling core. The full dashboard and the
// conversational layer live elsewhere and are not part of this service.
package api
