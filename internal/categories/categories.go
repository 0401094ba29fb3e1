package categories

import "strings"

// DefaultName is used whenever a generated category is missing or does not
// match the taxonomy.
const DefaultName = "Graphic Resources"

// names lists the Adobe Stock categories in their canonical order.
var names = []string{
	"Animals",
	"Buildings and Architecture",
	"Business",
	"Drinks",
	"The Environment",
	"States of Mind",
	"Food",
	"Graphic Resources",
	"Hobbies and Leisure",
	"Industry",
	"Landscapes",
	"Lifestyle",
	"People",
	"Plants and Flowers",
	"Culture and Religion",
	"Science",
	"Social Issues",
	"Sports",
	"Technology",
	"Transport",
	"Travel",
}

var byFolded map[string]string

func init() {
	byFolded = make(map[string]string, len(names))
	for _, name := range names {
		byFolded[strings.ToLower(name)] = name
	}
}

// All returns the category names in canonical order. The slice is a copy and
// safe for callers to modify.
func All() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// IsValid reports whether the value matches a category, ignoring case and
// surrounding whitespace.
func IsValid(value string) bool {
	_, ok := byFolded[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// Normalize maps a value onto its canonical category name. Unrecognized or
// empty input falls back to DefaultName so exported rows always carry a
// category Adobe Stock accepts.
func Normalize(value string) string {
	if canonical, ok := byFolded[strings.ToLower(strings.TrimSpace(value))]; ok {
		return canonical
	}
	return DefaultName
}
