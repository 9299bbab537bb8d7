package stroke

// Store is the per-board pool of live strokes. It is owned by a single ink
// room and only touched on that room's goroutine, so it carries no lock;
// queries hand out a copied slice and never retain references.
type Store struct {
	strokes []*Stroke
	byID    map[string]*Stroke
}

func NewStore() *Store {
	return &Store{byID: make(map[string]*Stroke)}
}

func (st *Store) Add(s *Stroke) {
	st.strokes = append(st.strokes, s)
	st.byID[s.ID] = s
}

func (st *Store) Get(id string) (*Stroke, bool) {
	s, ok := st.byID[id]
	return s, ok
}

// Remove deletes the stroke with the given ID, preserving order of the rest.
func (st *Store) Remove(id string) bool {
	if _, ok := st.byID[id]; !ok {
		return false
	}
	delete(st.byID, id)
	for i, s := range st.strokes {
		if s.ID == id {
			st.strokes = append(st.strokes[:i], st.strokes[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveLastBy removes and returns the most recent stroke by the given
// author, or nil if they have none. Used for undo.
func (st *Store) RemoveLastBy(authorID string) *Stroke {
	for i := len(st.strokes) - 1; i >= 0; i-- {
		if st.strokes[i].AuthorID == authorID {
			s := st.strokes[i]
			st.strokes = append(st.strokes[:i], st.strokes[i+1:]...)
			delete(st.byID, s.ID)
			return s
		}
	}
	return nil
}

// List returns a copy of the pool in insertion order.
func (st *Store) List() []*Stroke {
	out := make([]*Stroke, len(st.strokes))
	copy(out, st.strokes)
	return out
}

func (st *Store) Len() int { return len(st.strokes) }
