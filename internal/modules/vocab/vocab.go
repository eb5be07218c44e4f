// README: Status vocabulary; maps agent shorthand to canonical statuses.
package vocab

import "strings"

type Status string

const (
	// StatusPending is the sentinel restored by an undo that finds no
	// earlier non-terminal entry. It has no alias; agents cannot set it.
	StatusPending Status = "Pending"

	StatusOut      Status = "Out for delivery"
	StatusOnTheWay Status = "On the way to the city hub"
	StatusReceived Status = "Received by hub agents"
	StatusDone     Status = "Order delivery completed"
	StatusNoAnswer Status = "No answer from the number"
)

// IsTerminal reports whether no further update may change the status
// without an administrative undo.
func IsTerminal(s Status) bool {
	return s == StatusDone
}

// IsEscalation reports whether the status requires an admin alert and is
// exempt from bulk auto-close.
func IsEscalation(s Status) bool {
	return s == StatusNoAnswer
}

// defaultAliases holds alias keys already in normalized form.
var defaultAliases = map[string]Status{
	"out":       StatusOut,
	"ofd":       StatusOut,
	"otw":       StatusOnTheWay,
	"ontheway":  StatusOnTheWay, // also matches "on the way", "on-the-way"
	"got":       StatusReceived,
	"received":  StatusReceived,
	"done":      StatusDone,
	"delivered": StatusDone,
	"completed": StatusDone,
	"no":        StatusNoAnswer,
	"noanswer":  StatusNoAnswer,
	"na":        StatusNoAnswer,
}

// Table resolves free-text status tokens to canonical statuses.
// Lookup is exact match on the normalized token; no fuzzy or prefix
// matching, so unrecognized chatter stays unrecognized.
type Table struct {
	aliases map[string]Status
}

func Default() *Table {
	return &Table{aliases: defaultAliases}
}

// WithAliases returns a table extended with additional alias mappings,
// e.g. from the bot config file. Alias keys are normalized; the built-in
// aliases cannot be removed, only shadowed.
func (t *Table) WithAliases(extra map[string]Status) *Table {
	merged := make(map[string]Status, len(t.aliases)+len(extra))
	for k, v := range t.aliases {
		merged[k] = v
	}
	for k, v := range extra {
		merged[Normalize(k)] = v
	}
	return &Table{aliases: merged}
}

// Resolve maps a raw status token to its canonical status. ok is false
// when the token is not a known alias; callers treat that as "not an
// update", never as an error.
func (t *Table) Resolve(token string) (Status, bool) {
	s, ok := t.aliases[Normalize(token)]
	return s, ok
}

// Normalize lowercases the token and strips whitespace, hyphens and
// underscores so "on the way", "on-the-way" and "ontheway" collapse to
// one alias key.
func Normalize(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range strings.ToLower(token) {
		switch r {
		case ' ', '\t', '-', '_', '\'':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Canonical maps a canonical status name (as written in config files)
// back to a Status. Used to validate config-supplied aliases.
func Canonical(name string) (Status, bool) {
	for _, s := range []Status{StatusPending, StatusOut, StatusOnTheWay, StatusReceived, StatusDone, StatusNoAnswer} {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}
