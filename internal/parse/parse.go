// README: Pure parser for inbound chat text (lookups, updates, bulk done).
package parse

import (
	"strings"

	"statusbot/internal/types"
)

type Kind int

const (
	// KindNone means the text does not match any recognized shape and the
	// message must be ignored silently.
	KindNone Kind = iota
	// KindLookup is a bare order number: a read-only status query.
	KindLookup
	// KindUpdate is one or more order numbers followed by a status phrase.
	// Status holds the raw trailing phrase; vocabulary resolution is the
	// caller's job.
	KindUpdate
	// KindBulkDone is the literal message "done" with no ids: close all of
	// the sender's open, non-escalated orders.
	KindBulkDone
)

type Result struct {
	Kind   Kind
	IDs    []types.ID
	Status string
}

// Policy bounds acceptable order-number lengths. Digit runs outside the
// range are dropped rather than failing the whole parse.
type Policy struct {
	MinDigits int
	MaxDigits int
}

func DefaultPolicy() Policy {
	return Policy{MinDigits: 1, MaxDigits: 10}
}

// Message parses raw chat text. It is pure: same input, same result.
func Message(text string, policy Policy) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Kind: KindNone}
	}

	if strings.EqualFold(text, "done") {
		return Result{Kind: KindBulkDone}
	}

	if isDigits(text) {
		if !policy.lengthOK(text) {
			return Result{Kind: KindNone}
		}
		return Result{Kind: KindLookup, IDs: []types.ID{types.ID(text)}}
	}

	fields := strings.Fields(text)

	// The status phrase is the maximal trailing run of alphabetic tokens;
	// everything before it is the id list. A numeral mixed into the tail
	// stops the run at that point and leaves no phrase, invalidating the
	// match.
	split := len(fields)
	for split > 0 && isPhraseToken(fields[split-1]) {
		split--
	}
	if split == 0 || split == len(fields) {
		return Result{Kind: KindNone}
	}

	ids := extractIDs(fields[:split], policy)
	if len(ids) == 0 {
		return Result{Kind: KindNone}
	}
	status := strings.ToLower(strings.Join(fields[split:], " "))
	return Result{Kind: KindUpdate, IDs: ids, Status: status}
}

// extractIDs splits the numeric list on comma, slash and whitespace,
// dropping tokens that are not pure digit runs of acceptable length.
func extractIDs(fields []string, policy Policy) []types.ID {
	var ids []types.ID
	seen := make(map[string]bool)
	for _, f := range fields {
		for _, tok := range strings.FieldsFunc(f, func(r rune) bool {
			return r == ',' || r == '/'
		}) {
			if !isDigits(tok) || !policy.lengthOK(tok) {
				continue
			}
			if seen[tok] {
				continue
			}
			seen[tok] = true
			ids = append(ids, types.ID(tok))
		}
	}
	return ids
}

func (p Policy) lengthOK(tok string) bool {
	if p.MinDigits > 0 && len(tok) < p.MinDigits {
		return false
	}
	if p.MaxDigits > 0 && len(tok) > p.MaxDigits {
		return false
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isPhraseToken accepts alphabetic words, allowing hyphens and apostrophes
// inside a word ("on-the-way", agents' place names).
func isPhraseToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == '-' || r == '\'':
		default:
			return false
		}
	}
	return true
}
