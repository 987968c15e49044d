// Package locking serializes writes to a single ticket. The Redis locker
// coordinates several service instances; the local locker covers a single
// process.
package locking

import "context"

// Locker acquires an exclusive lock on key. The returned release func must be
// called exactly once. Acquisition gives up when ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// TicketKey is the lock key for a ticket.
func TicketKey(ticketID string) string {
	return "helpdesk:lock:ticket:" + ticketID
}
