package ancillary

import (
	"encoding/json"
	"strings"
)

// Container is an amenity source value that can be asked about one token.
type Container interface {
	Contains(token string) bool
}

// Text matches tokens anywhere in free text.
type Text string

func (t Text) Contains(token string) bool { return strings.Contains(string(t), token) }

// List matches exact members.
type List []string

func (l List) Contains(token string) bool {
	for _, v := range l {
		if v == token {
			return true
		}
	}
	return false
}

// Absent never contains anything.
type Absent struct{}

func (Absent) Contains(string) bool { return false }

// ParseContainer interprets a raw amenity cell. Bracketed values are read as a
// JSON array or a Python-style list literal; anything else is free text.
func ParseContainer(raw *string) Container {
	if raw == nil {
		return Absent{}
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return Absent{}
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return Text(s)
	}

	var list []string
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		return List(list)
	}
	return List(splitListLiteral(s[1 : len(s)-1]))
}

// splitListLiteral splits the body of a list literal such as
// 'a', "b, c", d. Commas inside quotes belong to the item.
func splitListLiteral(body string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		esc   bool
	)
	flush := func() {
		if v := strings.TrimSpace(cur.String()); v != "" {
			out = append(out, v)
		}
		cur.Reset()
	}
	for _, r := range body {
		switch {
		case esc:
			cur.WriteRune(r)
			esc = false
		case quote != 0 && r == '\\':
			esc = true
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
		case r == ',':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
