// Package ppp implements the core of a PPP session engine: the session
// object and its layer orchestration.
//
// The core demultiplexes inbound PPP frames by protocol number and
// dispatches them to registered handlers, drives a layered
// startup/teardown state machine from fresh kernel attachment through
// ACTIVE and back to released, and caches kernel PPP unit descriptors
// across sessions.
//
// Protocol finite-state machines (LCP, PAP/CHAP, IPCP, ...), the
// transport layer that produces the initial channel descriptor, the I/O
// reactor, configuration loading and logging are all external
// collaborators reached through the contracts declared in this package
// (Multiplexor, Reactor, Notifier, MetricsReporter, LayerFactory,
// SessionController).
package ppp
