package domain

import (
	"fmt"
	"strings"
)

// Action is the circulation action recorded for an item. The set is closed:
// every consumer is expected to handle both variants exhaustively.
//
// Usage: construct via ParseAction at trust boundaries; committed events
// always carry a valid Action.
type Action string

const (
	ActionBorrow Action = "borrow"
	ActionReturn Action = "return"
)

// actionKeywords maps the form's action words to canonical actions. The
// production form submits the Chinese words; the English pair is accepted for
// manual resubmissions through the same path.
var actionKeywords = map[string]Action{
	"borrow": ActionBorrow,
	"return": ActionReturn,
	"借閱":     ActionBorrow,
	"歸還":     ActionReturn,
}

// ParseAction constructs an Action from an operator-facing keyword.
func ParseAction(s string) (Action, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if a, ok := actionKeywords[key]; ok {
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// Opposite returns the action that must intervene before this one can repeat
// for the same item.
func (a Action) Opposite() Action {
	if a == ActionBorrow {
		return ActionReturn
	}
	return ActionBorrow
}

func (a Action) IsValid() bool {
	return a == ActionBorrow || a == ActionReturn
}

func (a Action) String() string {
	return string(a)
}
