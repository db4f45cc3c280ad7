package hosts

import "strings"

// Parse turns a raw line into a Line carrying the given id. It never fails:
// anything that is not a mapping is kept as a Comment.
func Parse(id int, raw string) Line {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return &Comment{Base: Base{ID: id}, Text: line}
	}

	// Tabs separate tokens as well as spaces.
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return &Comment{Base: Base{ID: id}, Text: line}
	}

	return &Mapping{
		Base:    Base{ID: id},
		IP:      fields[0],
		Domains: fields[1:],
	}
}
