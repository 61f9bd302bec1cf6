package store

import (
	"sort"
	"strings"

	"gitea.jw6.us/james/calllog/internal/schema"
)

// CallLogFilter narrows a call log listing. The zero value keeps everything
// in the order it was given.
type CallLogFilter struct {
	CallType      schema.CallType
	Search        string
	FavoritesOnly bool
	SortByRecent  bool
}

// IsZero reports whether f leaves a listing untouched.
func (f CallLogFilter) IsZero() bool {
	return f.CallType == "" && strings.TrimSpace(f.Search) == "" && !f.FavoritesOnly && !f.SortByRecent
}

// FilterCallLogs returns the logs matching f. Search matches the contact name
// case-insensitively and the phone number as a plain substring. A blank
// search is ignored; otherwise surrounding spaces are part of the query.
func FilterCallLogs(logs []schema.CallLog, f CallLogFilter) []schema.CallLog {
	searching := strings.TrimSpace(f.Search) != ""
	query := strings.ToLower(f.Search)

	out := make([]schema.CallLog, 0, len(logs))
	for _, log := range logs {
		if f.CallType != "" && log.CallType != f.CallType {
			continue
		}
		if f.FavoritesOnly && !log.IsFavorite {
			continue
		}
		if searching &&
			!strings.Contains(strings.ToLower(log.ContactName), query) &&
			!strings.Contains(log.PhoneNumber, query) {
			continue
		}
		out = append(out, log)
	}

	if f.SortByRecent {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.After(out[j].Timestamp)
		})
	}
	return out
}
