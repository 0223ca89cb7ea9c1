package inventory

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// NameKey is the case-insensitive identity of an equipment name.
func NameKey(name string) string {
	return folder.String(strings.TrimSpace(name))
}
