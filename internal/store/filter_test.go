package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitea.jw6.us/james/calllog/internal/schema"
)

func filterFixture() []schema.CallLog {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return []schema.CallLog{
		{ID: "1", ContactName: "Alice Smith", PhoneNumber: "+1 555 0100", CallType: schema.CallTypeIncoming, Timestamp: base},
		{ID: "2", ContactName: "Bob Jones", PhoneNumber: "+44 20 7946 0958", CallType: schema.CallTypeMissed, Timestamp: base.Add(2 * time.Hour), IsFavorite: true},
		{ID: "3", ContactName: "alice cooper", PhoneNumber: "0300 555", CallType: schema.CallTypeOutgoing, Timestamp: base.Add(time.Hour)},
		{ID: "4", ContactName: "Dana", PhoneNumber: "555-0199", CallType: schema.CallTypeMissed, Timestamp: base.Add(-time.Hour)},
	}
}

func ids(logs []schema.CallLog) []string {
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.ID
	}
	return out
}

func TestFilterCallLogsZeroFilterKeepsOrder(t *testing.T) {
	logs := filterFixture()
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(FilterCallLogs(logs, CallLogFilter{})))
	assert.True(t, CallLogFilter{}.IsZero())
}

func TestFilterCallLogs(t *testing.T) {
	testCases := []struct {
		name   string
		filter CallLogFilter
		want   []string
	}{
		{"by type", CallLogFilter{CallType: schema.CallTypeMissed}, []string{"2", "4"}},
		{"name is case-insensitive", CallLogFilter{Search: "ALICE"}, []string{"1", "3"}},
		{"phone substring", CallLogFilter{Search: "555"}, []string{"1", "3", "4"}},
		{"type and search", CallLogFilter{CallType: schema.CallTypeMissed, Search: "555"}, []string{"4"}},
		{"favorites", CallLogFilter{FavoritesOnly: true}, []string{"2"}},
		{"recent first", CallLogFilter{SortByRecent: true}, []string{"2", "3", "1", "4"}},
		{"no match", CallLogFilter{Search: "zzz"}, []string{}},
		{"blank search ignored", CallLogFilter{Search: "   "}, []string{"1", "2", "3", "4"}},
		{"trailing space is part of the query", CallLogFilter{Search: "alice "}, []string{"1", "3"}},
		{"surrounding spaces kept", CallLogFilter{Search: " dana"}, []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(FilterCallLogs(filterFixture(), tc.filter)))
		})
	}
}

// The filter must agree with an independent predicate over the same data.
func TestFilterCallLogsMatchesIndependentPredicate(t *testing.T) {
	logs := filterFixture()
	for _, ct := range append([]schema.CallType{""}, schema.CallTypes...) {
		for _, q := range []string{"", "a", "555", "Bob", "0", " ", "e s"} {
			got := FilterCallLogs(logs, CallLogFilter{CallType: ct, Search: q})

			var want []string
			for _, l := range logs {
				if ct != "" && l.CallType != ct {
					continue
				}
				if strings.TrimSpace(q) != "" && !strings.Contains(strings.ToLower(l.ContactName), strings.ToLower(q)) && !strings.Contains(l.PhoneNumber, q) {
					continue
				}
				want = append(want, l.ID)
			}
			if want == nil {
				want = []string{}
			}
			assert.Equal(t, want, ids(got), "type=%q search=%q", ct, q)
		}
	}
}
