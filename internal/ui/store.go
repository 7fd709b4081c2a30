// Package ui holds the console's view state: which overlays are open, which
// dropdown menus are expanded, and what each content container shows.
package ui

import (
	"slices"
	"sync"
)

// Well-known overlay and container ids.
const (
	OrderModalID         = "orderModal"
	OrderDetailContentID = "orderDetailContent"
	CardModalID          = "cardModal"
)

// ClickEvent is a click as seen by the single document-level listener.
// Path holds the target followed by its ancestors.
type ClickEvent struct {
	Target string
	Path   []string
}

func (e ClickEvent) contains(id string) bool {
	return e.Target == id || slices.Contains(e.Path, id)
}

// Store is the explicit UI-state store. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	mounted   map[string]bool
	visible   map[string]bool
	active    string
	dropdowns map[string]*dropdown // keyed by trigger control
	content   map[string]string
	onHide    map[string][]func()
}

type dropdown struct {
	id   string
	open bool
}

// NewStore returns a store with the given containers mounted.
func NewStore(mounted ...string) *Store {
	s := &Store{
		mounted:   make(map[string]bool),
		visible:   make(map[string]bool),
		dropdowns: make(map[string]*dropdown),
		content:   make(map[string]string),
		onHide:    make(map[string][]func()),
	}
	for _, id := range mounted {
		s.mounted[id] = true
	}
	return s
}

// Mount declares a container present in the markup.
func (s *Store) Mount(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted[id] = true
}

// OnHide registers fn to run whenever the overlay id goes from visible to
// hidden, whichever path hid it. Hooks run after the store is unlocked.
func (s *Store) OnHide(id string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onHide[id] = append(s.onHide[id], fn)
}

// Unmount removes a container and hides it.
func (s *Store) Unmount(id string) {
	s.mu.Lock()
	delete(s.mounted, id)
	delete(s.content, id)
	hooks := s.hideLocked(id)
	s.mu.Unlock()
	runHooks(hooks)
}

func (s *Store) Mounted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted[id]
}

// Open marks the overlay visible and active.
func (s *Store) Open(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible[id] = true
	s.active = id
}

// Close hides the overlay. Closing a hidden overlay is a no-op.
func (s *Store) Close(id string) {
	s.mu.Lock()
	hooks := s.hideLocked(id)
	s.mu.Unlock()
	runHooks(hooks)
}

// hideLocked hides id and returns the hooks to run if it was visible.
func (s *Store) hideLocked(id string) []func() {
	was := s.visible[id]
	delete(s.visible, id)
	if s.active == id {
		s.active = ""
	}
	if !was {
		return nil
	}
	return slices.Clone(s.onHide[id])
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}

func (s *Store) IsOpen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible[id]
}

// ActiveModal returns the most recently opened overlay that is still visible.
func (s *Store) ActiveModal() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// RegisterDropdown ties a dropdown menu to the control that toggles it.
func (s *Store) RegisterDropdown(trigger, dropdownID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.dropdowns[trigger]; ok {
		d.id = dropdownID
		return
	}
	s.dropdowns[trigger] = &dropdown{id: dropdownID}
}

// ToggleDropdown closes every other open dropdown, then flips the one owned by
// trigger. It reports the new state; an unknown trigger returns false.
func (s *Store) ToggleDropdown(trigger string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	own, ok := s.dropdowns[trigger]
	if !ok {
		return false
	}
	for t, d := range s.dropdowns {
		if t != trigger {
			d.open = false
		}
	}
	own.open = !own.open
	return own.open
}

// DropdownOpen reports whether the dropdown owned by trigger is expanded.
func (s *Store) DropdownOpen(trigger string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dropdowns[trigger]
	return ok && d.open
}

// OpenDropdowns lists the ids of expanded dropdowns, sorted.
func (s *Store) OpenDropdowns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, d := range s.dropdowns {
		if d.open {
			out = append(out, d.id)
		}
	}
	slices.Sort(out)
	return out
}

// HandleClick is the document-level click listener. It closes every open
// dropdown whose trigger does not contain the click, and dismisses the order
// modal when the click landed on its backdrop (the modal element itself).
func (s *Store) HandleClick(ev ClickEvent) {
	s.mu.Lock()
	var hooks []func()
	for trigger, d := range s.dropdowns {
		if d.open && !ev.contains(trigger) && !ev.contains(d.id) {
			d.open = false
		}
	}
	if ev.Target == OrderModalID && s.visible[OrderModalID] {
		hooks = s.hideLocked(OrderModalID)
	}
	s.mu.Unlock()
	runHooks(hooks)
}

// SetContent replaces what a container shows.
func (s *Store) SetContent(id, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[id] = html
}

func (s *Store) Content(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content[id]
}

// Reset hides every overlay, collapses every dropdown and drops rendered
// content, as a page reload would. Mounted containers stay mounted.
func (s *Store) Reset() {
	s.mu.Lock()
	var hooks []func()
	for id := range s.visible {
		hooks = append(hooks, s.hideLocked(id)...)
	}
	clear(s.content)
	for _, d := range s.dropdowns {
		d.open = false
	}
	s.mu.Unlock()
	runHooks(hooks)
}
