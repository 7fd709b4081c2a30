// Package cardsecret builds, validates and submits batches of card number and
// password pairs for manual delivery of an order.
package cardsecret

import (
	"fmt"
	"strings"
	"sync"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/apperr"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/backend"
)

type State int

const (
	StateEmpty State = iota
	StatePartiallyFilled
	StateFilled
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePartiallyFilled:
		return "partially-filled"
	case StateFilled:
		return "filled"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Entry is one card secret as typed by the operator.
type Entry struct {
	CardNo  string
	CardPwd string
}

func (e Entry) trimmed() Entry {
	return Entry{CardNo: strings.TrimSpace(e.CardNo), CardPwd: strings.TrimSpace(e.CardPwd)}
}

func (e Entry) complete() bool {
	t := e.trimmed()
	return t.CardNo != "" && t.CardPwd != ""
}

func (e Entry) blank() bool {
	t := e.trimmed()
	return t.CardNo == "" && t.CardPwd == ""
}

// SlotNames returns the input names of the 0-based slot i.
func SlotNames(i int) (cardNo, cardPwd string) {
	return fmt.Sprintf("%s_%d", apperr.FieldCardNo, i), fmt.Sprintf("%s_%d", apperr.FieldCardPwd, i)
}

// Form is an open batch builder for one order. A zero Form has no order
// metadata and cannot be submitted.
type Form struct {
	mu        sync.Mutex
	orderID   int64
	quantity  int
	entries   []Entry
	submitted bool
}

// Render returns an empty form with quantity slots.
func Render(orderID int64, quantity int) (*Form, error) {
	if quantity < 1 {
		return nil, apperr.Precondition("card quantity must be at least 1, got %d", quantity)
	}
	return &Form{orderID: orderID, quantity: quantity, entries: make([]Entry, quantity)}, nil
}

func (f *Form) OrderID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderID
}

func (f *Form) Quantity() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quantity
}

// Set fills slot i (0-based).
func (f *Form) Set(i int, cardNo, cardPwd string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitted {
		return apperr.Precondition("form for order %d already submitted", f.orderID)
	}
	if i < 0 || i >= len(f.entries) {
		return apperr.Precondition("slot %d out of range [0,%d)", i, len(f.entries))
	}
	f.entries[i] = Entry{CardNo: cardNo, CardPwd: cardPwd}
	return nil
}

// Entries returns a copy of the slots in order.
func (f *Form) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Entry(nil), f.entries...)
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitted {
		return StateSubmitted
	}
	var complete, blank int
	for _, e := range f.entries {
		switch {
		case e.complete():
			complete++
		case e.blank():
			blank++
		}
	}
	switch {
	case blank == len(f.entries):
		return StateEmpty
	case complete == len(f.entries):
		return StateFilled
	default:
		return StatePartiallyFilled
	}
}

// fill applies fn to the first n slots; n is clamped to the slot count.
// fill overwrites the first n slots, clamped to the form size, and returns
// how many it wrote.
func (f *Form) fill(n int, fn func(i int) Entry) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitted {
		return 0, apperr.Precondition("form for order %d already submitted", f.orderID)
	}
	n = min(n, len(f.entries))
	for i := range n {
		f.entries[i] = fn(i)
	}
	return n, nil
}

func (f *Form) markSubmitted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = true
}

// Validate checks entries slot by slot: blanks first, then a repeated card
// number, then a repeated password. The first violation is returned as a
// *apperr.ValidationError with a 1-based slot. On success the trimmed batch
// is returned in slot order.
func Validate(entries []Entry) ([]backend.Card, error) {
	cards := make([]backend.Card, 0, len(entries))
	seenNo := make(map[string]struct{}, len(entries))
	seenPwd := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		slot := i + 1
		t := e.trimmed()
		if t.CardNo == "" || t.CardPwd == "" {
			return nil, &apperr.ValidationError{Slot: slot, Reason: ReasonIncomplete}
		}
		if _, dup := seenNo[t.CardNo]; dup {
			return nil, &apperr.ValidationError{Slot: slot, Field: apperr.FieldCardNo, Reason: ReasonDuplicate}
		}
		if _, dup := seenPwd[t.CardPwd]; dup {
			return nil, &apperr.ValidationError{Slot: slot, Field: apperr.FieldCardPwd, Reason: ReasonDuplicate}
		}
		seenNo[t.CardNo] = struct{}{}
		seenPwd[t.CardPwd] = struct{}{}
		cards = append(cards, backend.Card{CardNo: t.CardNo, CardPwd: t.CardPwd})
	}
	return cards, nil
}

const (
	ReasonIncomplete = "incomplete"
	ReasonDuplicate  = "already used"
)

// Describe renders a validation error the way the operator sees it.
func Describe(ve *apperr.ValidationError) string {
	switch ve.Field {
	case apperr.FieldCardNo:
		return fmt.Sprintf("Card number of set %d is already used", ve.Slot)
	case apperr.FieldCardPwd:
		return fmt.Sprintf("Password of set %d is already used", ve.Slot)
	default:
		return fmt.Sprintf("Card secret set %d is incomplete", ve.Slot)
	}
}
