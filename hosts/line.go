package hosts

// Line is one physical line of a hosts file. It is either a *Comment or a
// *Mapping.
type Line interface {
	LineID() int
	IsDeleted() bool
	base() *Base
}

type Base struct {
	ID      int
	Deleted bool
}

func (b *Base) LineID() int {
	return b.ID
}

func (b *Base) IsDeleted() bool {
	return b.Deleted
}

func (b *Base) base() *Base {
	return b
}

// Comment holds a comment or an empty line verbatim (trimmed).
type Comment struct {
	Base
	Text string
}

// Mapping binds one address to the domains listed after it on the same line.
type Mapping struct {
	Base
	IP      string
	Domains []string
}

func (m *Mapping) clone() *Mapping {
	c := *m
	c.Domains = append([]string(nil), m.Domains...)
	return &c
}

func cloneLine(l Line) Line {
	switch v := l.(type) {
	case *Mapping:
		return v.clone()
	case *Comment:
		c := *v
		return &c
	}
	return l
}
