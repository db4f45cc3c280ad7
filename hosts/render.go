package hosts

import "strings"

// Render is the inverse of Parse. Runs of whitespace between tokens come back
// as single spaces.
func Render(l Line) string {
	switch v := l.(type) {
	case *Comment:
		return v.Text
	case *Mapping:
		if len(v.Domains) == 0 {
			return v.IP
		}
		return v.IP + " " + strings.Join(v.Domains, " ")
	}
	return ""
}
