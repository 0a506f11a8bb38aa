package models

import (
	"fmt"
	"strings"
)

// Meter is one meter of a multi-meter room.
type Meter struct {
	Name      string
	Remaining float64
	Raw       string
}

// BillResult is a successful balance query.
type BillResult struct {
	Multi     bool
	Remaining float64
	Raw       string
	Meters    []Meter
}

// Lowest returns the value used for the notification threshold: the scalar
// balance, or the smallest meter balance for multi-meter rooms.
func (b *BillResult) Lowest() float64 {
	if !b.Multi || len(b.Meters) == 0 {
		return b.Remaining
	}
	lowest := b.Meters[0].Remaining
	for _, m := range b.Meters[1:] {
		if m.Remaining < lowest {
			lowest = m.Remaining
		}
	}
	return lowest
}

// Summary renders the result on one line for logs and mails.
func (b *BillResult) Summary() string {
	if !b.Multi {
		return fmt.Sprintf("remaining: %s kWh", b.Raw)
	}
	parts := make([]string, 0, len(b.Meters))
	for _, m := range b.Meters {
		parts = append(parts, fmt.Sprintf("%s: remaining %s kWh", m.Name, m.Raw))
	}
	return strings.Join(parts, " | ")
}
