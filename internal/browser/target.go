package browser

import "fmt"

// Target locates elements by accessible role and name, or by label text.
type Target struct {
	Role   string
	Name   string
	Prefix bool
	Label  string
}

// Role matches elements with the given role whose accessible name contains name.
// Names are compared case-insensitively after collapsing whitespace.
func Role(role, name string) Target {
	return Target{Role: role, Name: name}
}

// RolePrefix matches elements with the given role whose accessible name starts with prefix.
func RolePrefix(role, prefix string) Target {
	return Target{Role: role, Name: prefix, Prefix: true}
}

// Label matches form controls whose label text contains text, ignoring case.
func Label(text string) Target {
	return Target{Label: text}
}

func (t Target) String() string {
	if t.Label != "" {
		return fmt.Sprintf("label=%q", t.Label)
	}
	if t.Prefix {
		return fmt.Sprintf("role=%s[name^=%q]", t.Role, t.Name)
	}
	return fmt.Sprintf("role=%s[name=%q]", t.Role, t.Name)
}

// query is the argument passed to the in-page resolver.
type query struct {
	Op     string `json:"op"`
	Role   string `json:"role,omitempty"`
	Name   string `json:"name,omitempty"`
	Prefix bool   `json:"prefix,omitempty"`
	Label  string `json:"label,omitempty"`
	Ref    string `json:"ref,omitempty"`
}

func (t Target) query(op string) query {
	return query{Op: op, Role: t.Role, Name: t.Name, Prefix: t.Prefix, Label: t.Label}
}
