package pillbox

import "sort"

type validKind int

const (
	validAny validKind = iota
	validList
	validDescribed
)

// ValidValues constrains which values a Box accepts. The zero value accepts
// any non-empty string.
type ValidValues struct {
	kind      validKind
	list      map[string]struct{}
	described map[string]string
}

// AnyValue accepts every non-empty value.
func AnyValue() ValidValues {
	return ValidValues{kind: validAny}
}

// List accepts only the given values.
func List(values ...string) ValidValues {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return ValidValues{kind: validList, list: set}
}

// Described accepts the keys of the mapping and exposes each value as the
// key's description.
func Described(descriptions map[string]string) ValidValues {
	copied := make(map[string]string, len(descriptions))
	for k, v := range descriptions {
		copied[k] = v
	}
	return ValidValues{kind: validDescribed, described: copied}
}

// IsSet reports whether any constraint applies.
func (v ValidValues) IsSet() bool {
	return v.kind != validAny
}

// Contains reports whether value is permitted.
func (v ValidValues) Contains(value string) bool {
	switch v.kind {
	case validList:
		_, ok := v.list[value]
		return ok
	case validDescribed:
		_, ok := v.described[value]
		return ok
	default:
		return value != ""
	}
}

// Describe returns the description for value, if the constraint carries one.
func (v ValidValues) Describe(value string) (string, bool) {
	if v.kind != validDescribed {
		return "", false
	}
	desc, ok := v.described[value]
	return desc, ok
}

// Values returns the permitted values sorted, or nil when unconstrained.
func (v ValidValues) Values() []string {
	var out []string
	switch v.kind {
	case validList:
		out = make([]string, 0, len(v.list))
		for k := range v.list {
			out = append(out, k)
		}
	case validDescribed:
		out = make([]string, 0, len(v.described))
		for k := range v.described {
			out = append(out, k)
		}
	default:
		return nil
	}
	sort.Strings(out)
	return out
}

// orderedSet keeps insertion order. Pillboxes hold a handful of values, so
// linear scans are fine.
type orderedSet struct {
	items []string
}

func (s *orderedSet) index(value string) int {
	for i, item := range s.items {
		if item == value {
			return i
		}
	}
	return -1
}

func (s *orderedSet) has(value string) bool {
	return s.index(value) >= 0
}

func (s *orderedSet) add(value string) {
	if s.has(value) {
		return
	}
	s.items = append(s.items, value)
}

func (s *orderedSet) insertAt(i int, value string) {
	if s.has(value) {
		return
	}
	if i < 0 || i > len(s.items) {
		i = len(s.items)
	}
	s.items = append(s.items, "")
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = value
}

func (s *orderedSet) remove(value string) int {
	i := s.index(value)
	if i < 0 {
		return -1
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return i
}

func (s *orderedSet) values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
