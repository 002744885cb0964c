package ports

import "github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"

// Notifier receives change notifications for the presentation layer.
type Notifier interface {
	CurveChanged(channel int)
	ValidationFailed(kind domain.ValidationKind)
}

// Action is a reconciliation resolution.
type Action int

const (
	ActionRemove Action = iota + 1
	ActionAdd
	ActionMatch
)

func (a Action) String() string {
	switch a {
	case ActionRemove:
		return "remove"
	case ActionAdd:
		return "add"
	case ActionMatch:
		return "match"
	default:
		return "unknown"
	}
}

// Resolution is the user's answer for one missing entry. Row is used by
// ActionAdd, Label by ActionMatch.
type Resolution struct {
	Action Action
	Row    int
	Label  string
}

// Prompter asks the user how to resolve one missing family entry. labels
// lists the live rows the entry could be matched to.
type Prompter interface {
	Prompt(entry domain.LimitFamilyEntry, labels []string) (Resolution, error)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) CurveChanged(int)                       {}
func (NopNotifier) ValidationFailed(domain.ValidationKind) {}
