// Package action sends per-order commands to the backend after the operator
// confirms them.
package action

import (
	"slices"
	"strings"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/backend"
)

// Kind names one order action. Its value is also the last path segment.
type Kind string

const (
	NotifySuccess   Kind = "notify-success"
	NotifyRefund    Kind = "notify-refund"
	AgisoDeliver    Kind = "agiso-deliver"
	Card91Deliver   Kind = "card91-deliver"
	DebugSuccess    Kind = "debug-success"
	DebugProcessing Kind = "debug-processing"
	DebugFailed     Kind = "debug-failed"
)

// Effect is what happens after the backend accepts a command.
type Effect int

const (
	EffectNone Effect = iota
	EffectReloadPage
)

// SelfTestPrefix opens every debug confirmation.
const SelfTestPrefix = "⚠️ Self-test"

const selfTestWarning = "\n\nThe vendor callback is bypassed. For testing only."

// Command describes one action. Every command is a POST with an empty JSON body.
type Command struct {
	Kind   Kind
	Prompt string
	Effect Effect
	Debug  bool
}

// Path returns the endpoint for orderID.
func (c Command) Path(orderID int64) string {
	return backend.OrderActionPath(orderID, string(c.Kind))
}

var commands = map[Kind]Command{
	NotifySuccess: {
		Kind:   NotifySuccess,
		Prompt: "Notify the marketplace that this order was recharged successfully?",
		Effect: EffectReloadPage,
	},
	NotifyRefund: {
		Kind:   NotifyRefund,
		Prompt: "Notify the marketplace that this order was refunded?",
		Effect: EffectReloadPage,
	},
	AgisoDeliver: {
		Kind:   AgisoDeliver,
		Prompt: "Deliver this order automatically through Agiso?",
		Effect: EffectReloadPage,
	},
	Card91Deliver: {
		Kind:   Card91Deliver,
		Prompt: "Deliver this order automatically through Card91?",
		Effect: EffectReloadPage,
	},
	DebugSuccess:    debug(DebugSuccess, "recharge succeeded"),
	DebugProcessing: debug(DebugProcessing, "recharging"),
	DebugFailed:     debug(DebugFailed, "recharge failed"),
}

func debug(k Kind, status string) Command {
	return Command{
		Kind:   k,
		Prompt: SelfTestPrefix + ": mark the order as " + status + "?" + selfTestWarning,
		Effect: EffectReloadPage,
		Debug:  true,
	}
}

// Lookup returns the command for k.
func Lookup(k Kind) (Command, bool) {
	c, ok := commands[k]
	return c, ok
}

// Commands returns every command sorted by kind.
func Commands() []Command {
	out := make([]Command, 0, len(commands))
	for _, c := range commands {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Command) int { return strings.Compare(string(a.Kind), string(b.Kind)) })
	return out
}
