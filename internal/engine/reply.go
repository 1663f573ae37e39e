package engine

import "fmt"

// Option is one inline choice the transport should render as a button
type Option struct {
	Label string
	Data  string // callback payload, e.g. "GRADE|4|17"
}

// Reply is a transport-neutral outbound turn. Speak, when set, is a line
// the bot may additionally voice; failures there never block the flow.
type Reply struct {
	Text    string
	Options []Option
	Speak   string
}

func textReply(format string, args ...any) *Reply {
	return &Reply{Text: fmt.Sprintf(format, args...)}
}

// replyStartOver is the neutral answer to controls that no longer match
// the live session. Nothing is mutated.
func replyStartOver() *Reply {
	return &Reply{Text: "That button doesn't match what we're doing right now. Use /learn or /review to start again."}
}

func retryOptions() []Option {
	return []Option{
		{Label: "🔁 Retry", Data: "PENDING|RETRY"},
		{Label: "⏭ Skip", Data: "PENDING|SKIP"},
	}
}

func gradeOptions(itemID int64) []Option {
	opts := make([]Option, 0, 6)
	for q := 0; q <= 5; q++ {
		opts = append(opts, Option{
			Label: fmt.Sprintf("%d", q),
			Data:  fmt.Sprintf("GRADE|%d|%d", q, itemID),
		})
	}
	return opts
}

func undoOption(itemID int64) Option {
	return Option{Label: "↩️ Undo", Data: fmt.Sprintf("UNDO|%d", itemID)}
}

var guessLabels = []string{"A", "B", "C"}

func guessOptions(n int) []Option {
	opts := make([]Option, 0, n)
	for i := 0; i < n && i < len(guessLabels); i++ {
		opts = append(opts, Option{Label: guessLabels[i], Data: fmt.Sprintf("GUESS|%d", i)})
	}
	return opts
}
