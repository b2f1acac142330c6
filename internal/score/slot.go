// internal/score/slot.go
package score

import (
	"fmt"
	"strings"
)

// SlotType is the kind of hardware a slot runs on.
type SlotType string

const (
	SlotCPU SlotType = "CPU"
	SlotGPU SlotType = "GPU"
)

// SlotMap maps slot ids such as "FS00" to the hardware type they run on.
type SlotMap map[string]SlotType

// DefaultSlotMap returns the stock client layout: FS00 is the CPU slot and
// FS01 the GPU slot.
func DefaultSlotMap() SlotMap {
	return SlotMap{
		"FS00": SlotCPU,
		"FS01": SlotGPU,
	}
}

// TypeOf returns the slot type for the given slot id.
func (m SlotMap) TypeOf(slot string) (SlotType, error) {
	t, ok := m[slot]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	return t, nil
}

// With returns a copy of m with the overrides applied on top.
func (m SlotMap) With(overrides map[string]SlotType) SlotMap {
	out := make(SlotMap, len(m)+len(overrides))
	for slot, t := range m {
		out[slot] = t
	}
	for slot, t := range overrides {
		out[slot] = t
	}
	return out
}

// ParseSlotType parses "cpu" or "gpu" in any case.
func ParseSlotType(s string) (SlotType, error) {
	switch SlotType(strings.ToUpper(strings.TrimSpace(s))) {
	case SlotCPU:
		return SlotCPU, nil
	case SlotGPU:
		return SlotGPU, nil
	}
	return "", fmt.Errorf("invalid slot type %q: must be CPU or GPU", s)
}
