package history

import (
	"strings"

	"github.com/google/uuid"
)

// State is the payload stored alongside a history entry.
type State struct {
	// Key distinguishes otherwise identical entries. It is regenerated on
	// every committed push or replace.
	Key string

	// Value is the caller-supplied state, passed through uninterpreted.
	Value any
}

// Location is the parsed representation of the current address.
// Href is always Pathname + Search + Hash.
type Location struct {
	Href     string
	Pathname string
	Search   string
	Hash     string
	State    State
}

// ParseLocation splits href into pathname, search and hash.
//
// A '?' that appears after the first '#' belongs to the hash. Malformed
// input yields a correspondingly malformed parse; there is no error case.
func ParseLocation(href string, state State) Location {
	hashIndex := strings.IndexByte(href, '#')
	searchIndex := strings.IndexByte(href, '?')
	if hashIndex >= 0 && searchIndex > hashIndex {
		searchIndex = -1
	}

	end := len(href)
	switch {
	case searchIndex >= 0:
		end = searchIndex
	case hashIndex >= 0:
		end = hashIndex
	}

	loc := Location{
		Href:     href,
		Pathname: href[:end],
		State:    state,
	}
	if hashIndex >= 0 {
		loc.Hash = href[hashIndex:]
	}
	if searchIndex >= 0 {
		stop := len(href)
		if hashIndex >= 0 {
			stop = hashIndex
		}
		loc.Search = href[searchIndex:stop]
	}
	return loc
}

// NewKey returns a short random token used as a state key.
func NewKey() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}

// same reports whether two locations describe the same committed entry.
func same(a, b Location) bool {
	return a.Href == b.Href && a.State.Key == b.State.Key
}
