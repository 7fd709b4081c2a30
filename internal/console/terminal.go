package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/ui"
)

// Terminal is the operator at a line-oriented terminal. Confirmations read
// their answer from the same input as commands.
type Terminal struct {
	in *bufio.Reader

	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// ReadLine returns the next line without its terminator. A final line with
// no newline is returned before io.EOF.
func (t *Terminal) ReadLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks prompt and accepts only y or yes. End of input declines.
func (t *Terminal) Confirm(prompt string) bool {
	t.Printf("%s [y/N] ", prompt)
	line, err := t.ReadLine()
	if err != nil {
		t.Printf("\n")
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (t *Terminal) Alert(message string) {
	t.Printf("%s\n", message)
}

func (t *Terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

var _ ui.Operator = (*Terminal)(nil)

// Page stands in for the hosting page. A reload resets the view state and
// runs every registered hook.
type Page struct {
	store *ui.Store
	term  *Terminal

	mu    sync.Mutex
	hooks []func()
}

func NewPage(store *ui.Store, term *Terminal) *Page {
	return &Page{store: store, term: term}
}

// OnReload registers fn to run after every reload.
func (p *Page) OnReload(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, fn)
}

func (p *Page) Reload() {
	p.store.Reset()
	p.mu.Lock()
	hooks := append([]func(){}, p.hooks...)
	p.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	if p.term != nil {
		p.term.Printf("↻ page reloaded\n")
	}
}
