package hosts

import (
	"strings"
	"sync"
)

// Store is the ordered, in-memory model of a hosts file. It is safe for
// concurrent use; readers may observe a growing list while a load is
// streaming in.
type Store struct {
	sync.RWMutex
	lines  []Line
	index  map[int]int
	nextID int
}

func NewStore() *Store {
	return &Store{
		index:  make(map[int]int),
		nextID: 1,
	}
}

// Load replaces the content of the store with the given raw lines, in order.
// Identifiers keep counting from where the store left off.
func (s *Store) Load(raw ...string) {
	s.Lock()
	defer s.Unlock()

	s.lines = make([]Line, 0, len(raw))
	s.index = make(map[int]int, len(raw))
	for _, r := range raw {
		s.appendLocked(r)
	}
}

// Append parses raw as the next line of the file and returns a copy of the
// stored record.
func (s *Store) Append(raw string) Line {
	s.Lock()
	defer s.Unlock()
	return cloneLine(s.appendLocked(raw))
}

func (s *Store) appendLocked(raw string) Line {
	l := Parse(s.nextID, raw)
	s.nextID++
	s.index[l.LineID()] = len(s.lines)
	s.lines = append(s.lines, l)
	return l
}

func (s *Store) find(id int) Line {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.lines[i]
}

// ToggleDeleted flips the soft-delete flag of the line. Unknown ids are
// ignored.
func (s *Store) ToggleDeleted(id int) {
	s.Lock()
	defer s.Unlock()

	if l := s.find(id); l != nil {
		b := l.base()
		b.Deleted = !b.Deleted
	}
}

// SetIP overwrites the address of a mapping. Comments and unknown ids are
// ignored.
func (s *Store) SetIP(id int, ip string) {
	s.Lock()
	defer s.Unlock()

	if m, ok := s.find(id).(*Mapping); ok {
		m.IP = ip
	}
}

// Get returns a copy of the line with the given id.
func (s *Store) Get(id int) (Line, bool) {
	s.RLock()
	defer s.RUnlock()

	l := s.find(id)
	if l == nil {
		return nil, false
	}
	return cloneLine(l), true
}

// Lines returns copies of every line in file order.
func (s *Store) Lines() []Line {
	s.RLock()
	defer s.RUnlock()

	lines := make([]Line, len(s.lines))
	for i, l := range s.lines {
		lines[i] = cloneLine(l)
	}
	return lines
}

// Mappings returns copies of every mapping in file order, deleted ones
// included.
func (s *Store) Mappings() []*Mapping {
	s.RLock()
	defer s.RUnlock()

	var mappings []*Mapping
	for _, l := range s.lines {
		if m, ok := l.(*Mapping); ok {
			mappings = append(mappings, m.clone())
		}
	}
	return mappings
}

// Visible returns every mapping, deleted ones included, ranked against query.
func (s *Store) Visible(query string) []*Mapping {
	return Rank(query, s.Mappings())
}

// Snapshot renders every line, deleted or not, in file order.
func (s *Store) Snapshot() []string {
	s.RLock()
	defer s.RUnlock()

	out := make([]string, len(s.lines))
	for i, l := range s.lines {
		out[i] = Render(l)
	}
	return out
}

// Text is the full file content as it would be saved.
func (s *Store) Text() string {
	lines := s.Snapshot()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func (s *Store) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.lines)
}

type Stats struct {
	Total    int
	Mappings int
	Comments int
	Deleted  int
}

func (s *Store) Stats() Stats {
	s.RLock()
	defer s.RUnlock()

	st := Stats{Total: len(s.lines)}
	for _, l := range s.lines {
		switch l.(type) {
		case *Mapping:
			st.Mappings++
		case *Comment:
			st.Comments++
		}
		if l.IsDeleted() {
			st.Deleted++
		}
	}
	return st
}
