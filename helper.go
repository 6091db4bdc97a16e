package taskgraph

import "fmt"

// connectionHelper is the per-node object Build uses to resolve wiring. It
// maps each of the node's ports to its slot index and moves the typed
// storage (queues, callback lists) behind a type-erased facade: bind and
// target exchange callbacks as `any`, and every such value is reasserted in
// its declared typed form on the receiving slot.
type connectionHelper struct {
	in  map[InputPort]int
	out map[OutputPort]int

	inSlots  []InputPort
	outSlots []OutputPort

	following map[int]struct{}
	taken     bool
}

func newConnectionHelper(inputs []InputPort, outputs []OutputPort) *connectionHelper {
	h := &connectionHelper{
		in:        make(map[InputPort]int, len(inputs)),
		out:       make(map[OutputPort]int, len(outputs)),
		inSlots:   inputs,
		outSlots:  outputs,
		following: map[int]struct{}{},
	}
	for i, p := range inputs {
		h.in[p] = i
	}
	for i, p := range outputs {
		h.out[p] = i
	}
	return h
}

func (h *connectionHelper) inputs() map[InputPort]int {
	return h.in
}

func (h *connectionHelper) outputs() map[OutputPort]int {
	return h.out
}

// bind appends a raw callback to the callback list of the given output
// slot. The raw value must be a func(T) for the slot's element type.
func (h *connectionHelper) bind(out OutputPort, raw any) error {
	slot, ok := h.out[out]
	if !ok {
		return fmt.Errorf("output %q: %w", out.Name(), ErrSlotNotFound)
	}
	return h.outSlots[slot].appendRaw(raw)
}

// target returns the typed pusher for the given input slot's queue.
func (h *connectionHelper) target(in InputPort) (any, error) {
	slot, ok := h.in[in]
	if !ok {
		return nil, fmt.Errorf("input %q: %w", in.Name(), ErrSlotNotFound)
	}
	return h.inSlots[slot].pusher(), nil
}

// addFollowing records that the node at the given pipeline index consumes
// one of our outputs.
func (h *connectionHelper) addFollowing(node int) {
	h.following[node] = struct{}{}
}

// queue relinquishes the typed input slots to the task container. Single
// use; the helper is consumed.
func (h *connectionHelper) queue() []InputPort {
	if h.taken {
		panic("connection helper storage taken twice")
	}
	h.taken = true
	return h.inSlots
}

// callbacks relinquishes the typed output slots to the task container and
// freezes every callback list.
func (h *connectionHelper) callbacks() []OutputPort {
	for _, out := range h.outSlots {
		out.freeze()
	}
	return h.outSlots
}
