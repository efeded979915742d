package fact

import "slices"

// Waiters is an ordered set of requester identifiers. Insertion order is kept and
// duplicates are ignored on Add.
type Waiters struct {
	ids []string
}

// NewWaiters creates a set from the given identifiers, dropping duplicates and blanks.
func NewWaiters(ids ...string) *Waiters {
	w := &Waiters{}
	w.Add(ids...)
	return w
}

// Add appends the identifiers that are not present yet.
func (w *Waiters) Add(ids ...string) {
	for _, id := range ids {
		if id == "" || slices.Contains(w.ids, id) {
			continue
		}
		w.ids = append(w.ids, id)
	}
}

// Merge appends all identifiers of other, keeping the receiver's order first.
func (w *Waiters) Merge(other *Waiters) {
	if other == nil {
		return
	}
	w.Add(other.ids...)
}

// Len returns the number of distinct requesters.
func (w *Waiters) Len() int { return len(w.ids) }

// IDs returns a copy of the identifiers in insertion order.
func (w *Waiters) IDs() []string { return slices.Clone(w.ids) }
