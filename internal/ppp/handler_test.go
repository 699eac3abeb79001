package ppp

import "testing"

func TestHandlerList_FindReturnsFirstMatchInRegistrationOrder(t *testing.T) {
	h := newHandlerList()

	first := &HandlerRegistration{Proto: 0xc021}
	second := &HandlerRegistration{Proto: 0xc021}
	h.register(first)
	h.register(second)

	got := h.find(0xc021)
	if got != first {
		t.Fatalf("find returned %p, want first registration %p", got, first)
	}
}

func TestHandlerList_FindMissReturnsNil(t *testing.T) {
	h := newHandlerList()
	h.register(&HandlerRegistration{Proto: 0xc021})

	if got := h.find(0x8021); got != nil {
		t.Fatalf("find() = %v, want nil", got)
	}
}

func TestHandlerList_UnregisterIsIdempotentAndReportsPresence(t *testing.T) {
	h := newHandlerList()
	reg := &HandlerRegistration{Proto: 0xc021}
	h.register(reg)

	if !h.unregister(reg) {
		t.Fatal("unregister should report true the first time")
	}
	if h.unregister(reg) {
		t.Fatal("unregister should report false once already removed")
	}
	if h.find(0xc021) != nil {
		t.Fatal("find should no longer see the unregistered registration")
	}
}

func TestHandlerList_RegisterSameTwiceIsNoop(t *testing.T) {
	h := newHandlerList()
	reg := &HandlerRegistration{Proto: 0xc021}
	h.register(reg)
	h.register(reg)

	if h.order.Len() != 1 {
		t.Fatalf("order.Len() = %d, want 1", h.order.Len())
	}
}
