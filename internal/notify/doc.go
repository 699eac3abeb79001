// Package notify implements ppp.Notifier by emitting D-Bus signals on
// the system bus, mirroring the org.freedesktop style lifecycle
// notifications NetworkManager-adjacent daemons use so other system
// components can react to PPP session state without polling.
package notify
