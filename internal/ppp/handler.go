package ppp

import "container/list"

// HandlerRegistration is a record placed on either the channel or the
// unit handler list. It carries the 16-bit protocol tag it claims, a
// Recv callback invoked with the session's shared read buffer sliced to
// the frame length, and an optional RecvProtoRej callback.
//
// HandlerRegistration is owned by the external protocol implementation,
// not by the Session: callers must call Session.UnregisterHandler before
// the owning layer is freed.
type HandlerRegistration struct {
	// Proto is the 16-bit PPP protocol tag this registration claims.
	Proto uint16

	// Recv is invoked with the frame payload (the full frame, including
	// the two-byte protocol tag) when a matching frame is demultiplexed.
	// The slice is borrowed and must not be retained past the call.
	Recv func(frame []byte)

	// RecvProtoRej, if non-nil, is invoked when the peer rejects this
	// protocol via LCP Protocol-Reject.
	RecvProtoRej func()
}

// handlerList is an ordered list of *HandlerRegistration supporting
// O(1) unregistration, matching the core's list_add_tail/list_del
// idiom. No uniqueness is enforced on Proto: duplicate registrations
// may coexist, but find() returns only the first match in list order,
// so only that registration receives dispatched frames.
type handlerList struct {
	order    *list.List
	elements map[*HandlerRegistration]*list.Element
}

func newHandlerList() *handlerList {
	return &handlerList{
		order:    list.New(),
		elements: make(map[*HandlerRegistration]*list.Element),
	}
}

func (h *handlerList) register(reg *HandlerRegistration) {
	if _, exists := h.elements[reg]; exists {
		return
	}
	h.elements[reg] = h.order.PushBack(reg)
}

// unregister removes reg if present, reporting whether it was found in
// this list.
func (h *handlerList) unregister(reg *HandlerRegistration) bool {
	el, ok := h.elements[reg]
	if !ok {
		return false
	}
	h.order.Remove(el)
	delete(h.elements, reg)
	return true
}

// find returns the first registration matching proto, in registration
// order.
func (h *handlerList) find(proto uint16) *HandlerRegistration {
	for e := h.order.Front(); e != nil; e = e.Next() {
		reg := e.Value.(*HandlerRegistration) //nolint:forcetypeassert // list is homogeneous by construction.
		if reg.Proto == proto {
			return reg
		}
	}
	return nil
}
