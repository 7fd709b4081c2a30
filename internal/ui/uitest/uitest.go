// Package uitest provides scripted stand-ins for the operator and the page.
package uitest

import (
	"strings"
	"sync"
)

// Operator answers confirmations from a script and records everything it is shown.
// When the script runs out, Default is used.
type Operator struct {
	mu      sync.Mutex
	answers []bool
	Default bool

	Prompts []string
	Alerts  []string
}

// NewOperator returns an operator that gives answers in order.
func NewOperator(answers ...bool) *Operator {
	return &Operator{answers: answers}
}

// Accepting returns an operator that confirms everything.
func Accepting() *Operator { return &Operator{Default: true} }

// Declining returns an operator that declines everything.
func Declining() *Operator { return &Operator{Default: false} }

func (o *Operator) Confirm(prompt string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Prompts = append(o.Prompts, prompt)
	if len(o.answers) == 0 {
		return o.Default
	}
	a := o.answers[0]
	o.answers = o.answers[1:]
	return a
}

func (o *Operator) Alert(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Alerts = append(o.Alerts, message)
}

// LastAlert returns the most recent alert or "".
func (o *Operator) LastAlert() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.Alerts) == 0 {
		return ""
	}
	return o.Alerts[len(o.Alerts)-1]
}

// Alerted reports whether any alert contains substr.
func (o *Operator) Alerted(substr string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, a := range o.Alerts {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}

// Page counts reloads.
type Page struct {
	mu       sync.Mutex
	reloads  int
	OnReload func()
}

func (p *Page) Reload() {
	p.mu.Lock()
	p.reloads++
	fn := p.OnReload
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (p *Page) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}
