package cardsecret

import (
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	cardNoMinLen  = 10
	cardNoMaxLen  = 20
	cardPwdMinLen = 4
	cardPwdMaxLen = 12

	digits      = "0123456789"
	pwdAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator produces filler card secrets. Values need not be unique.
type Generator interface {
	CardNo() string
	CardPwd() string
}

// RandomGenerator draws lengths and characters uniformly.
type RandomGenerator struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomGenerator uses src, or the runtime's random source when src is nil.
func NewRandomGenerator(src rand.Source) *RandomGenerator {
	g := &RandomGenerator{}
	if src != nil {
		g.r = rand.New(src)
	}
	return g
}

func (g *RandomGenerator) CardNo() string {
	return g.draw(cardNoMinLen, cardNoMaxLen, digits)
}

func (g *RandomGenerator) CardPwd() string {
	return g.draw(cardPwdMinLen, cardPwdMaxLen, pwdAlphabet)
}

func (g *RandomGenerator) draw(minLen, maxLen int, alphabet string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := minLen + g.intN(maxLen-minLen+1)
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(alphabet[g.intN(len(alphabet))])
	}
	return b.String()
}

func (g *RandomGenerator) intN(n int) int {
	if g.r == nil {
		return rand.IntN(n)
	}
	return g.r.IntN(n)
}
