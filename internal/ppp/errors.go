package ppp

import "errors"

// Setup/establish errors.
var (
	// ErrNoLayers is returned by Establish when the LayerRegistry produced
	// an empty pipeline (no tiers).
	ErrNoLayers = errors.New("ppp: layer pipeline has no tiers")

	// ErrAlreadyEstablished is returned by Establish when called more
	// than once on the same Session.
	ErrAlreadyEstablished = errors.New("ppp: session already established")

	// ErrSessionClosed is returned by ChanSend/UnitSend once the
	// corresponding descriptor has been torn down.
	ErrSessionClosed = errors.New("ppp: session descriptor is closed")
)

// Layer registry errors.
var (
	// ErrUnknownLayer is returned by RegisterLayer when the name does not
	// match one of the fixed tier names (lcp, auth, ccp, ipcp, ipv6cp).
	ErrUnknownLayer = errors.New("ppp: unknown layer name")

	// ErrLayerNotRegistered reports that a layer factory is not present
	// in the registry. UnregisterLayer and LayerRegistry.Unregister do
	// not return it: removing an unknown factory is a silent no-op.
	ErrLayerNotRegistered = errors.New("ppp: layer factory not registered")
)

// ErrWouldBlock is the sentinel a Multiplexor implementation's Read must
// wrap (via fmt.Errorf("...: %w", ErrWouldBlock)) when a non-blocking
// read has no data available. The demux loop treats it as "yield to the
// reactor" rather than an error.
var ErrWouldBlock = errors.New("ppp: read would block")

// ErrUnsupported is returned by a Multiplexor implementation when the
// running platform has no kernel support for PPP unit multiplexing
// (e.g. the internal/kernel stub on non-Linux builds).
var ErrUnsupported = errors.New("ppp: unsupported platform")

// Manager errors.
var (
	// ErrSessionNotFound is returned by Manager lookups and control
	// operations when the session ID is unknown.
	ErrSessionNotFound = errors.New("ppp: session not found")

	// ErrSessionExists is returned by Manager.Establish when the session
	// ID is already registered.
	ErrSessionExists = errors.New("ppp: session already registered")
)
