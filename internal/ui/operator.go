package ui

// Operator is the person at the console.
type Operator interface {
	// Confirm asks a yes/no question; false means declined.
	Confirm(prompt string) bool
	// Alert shows a message that must be acknowledged.
	Alert(message string)
}

// Page is the page hosting the console.
type Page interface {
	Reload()
}

const (
	SuccessMark = "✅ "
	FailureMark = "❌ "
)

// Announce alerts message prefixed with the success or failure mark.
func Announce(op Operator, success bool, message string) {
	if success {
		op.Alert(SuccessMark + message)
		return
	}
	op.Alert(FailureMark + message)
}
