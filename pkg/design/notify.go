package design

import (
	"slices"

	"github.com/matzehuels/nunet/pkg/errors"
)

// Notification is one surfaced failure.
type Notification struct {
	Code    errors.Code
	Message string
}

// Notifications is a chronological list of surfaced failures, oldest first.
type Notifications struct {
	items []Notification
}

// Push appends err. A nil error is ignored.
func (n *Notifications) Push(err error) {
	if err == nil {
		return
	}
	n.items = append(n.items, Notification{
		Code:    errors.GetCode(err),
		Message: errors.UserMessage(err),
	})
}

// List returns the notifications oldest first.
func (n *Notifications) List() []Notification { return slices.Clone(n.items) }

// Recent returns up to limit notifications, most recent first. A limit of
// zero or less returns all of them.
func (n *Notifications) Recent(limit int) []Notification {
	out := slices.Clone(n.items)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of notifications.
func (n *Notifications) Len() int { return len(n.items) }

// Clear empties the list.
func (n *Notifications) Clear() { n.items = nil }

// Report records err in the designer's notification list and returns it
// unchanged, so callers can write `return d.Report(d.AddNeuron(...))`.
func (d *Designer) Report(err error) error {
	d.notices.Push(err)
	return err
}

// Notifications returns the designer's notification list.
func (d *Designer) Notifications() *Notifications { return &d.notices }
