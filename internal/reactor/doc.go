// Package reactor implements ppp.Reactor with a single epoll(7) loop per
// process. Every session's fds are registered on the same epoll instance,
// and every readiness callback runs inline on the single loop goroutine,
// so callbacks are serialized across all sessions, not only per session.
package reactor
