// Package query compiles free-text issue searches into Linear issue filters.
//
// Supported syntax:
//
//	assignee:@me         issues assigned to the API key owner
//	priority:<p>         0-4 or no|urgent|high|medium|low ("2"/"high" match urgent too)
//	state:<s> status:<s> workflow state name; replaces the open-issues default
//	team:<t>             team name
//	label:<l>            label name
//	word                 title or description contains word
//
// Values containing spaces can be quoted: team:"Mobile Apps".
package query

import (
	"strconv"
	"strings"

	"github.com/linearmcp/linear-mcp/internal/core"
)

// MyIssuesValue is the assignee value selecting the caller's own issues.
const MyIssuesValue = "@me"

// Compiled is the result of compiling a raw search string.
type Compiled struct {
	Filter     core.IssueFilter       `json:"filter"`
	IsMyIssues bool                   `json:"isMyIssuesQuery"`
	Priority   *core.NumberComparator `json:"priorityFilter,omitempty"`
	Tokens     []Token                `json:"tokens,omitempty"`
}

// SearchFilter returns the filter with the priority constraint merged in.
// The my-issues path uses Filter directly and never sees the priority.
func (c Compiled) SearchFilter() core.IssueFilter {
	filter := c.Filter
	if c.Priority != nil {
		filter.Priority = c.Priority
	}
	return filter
}

// Compile turns raw into a filter. It never fails: fragments it does not
// understand are ignored, and bare words become free-text terms.
func Compile(raw string) Compiled {
	compiled := Compiled{
		Filter: core.IssueFilter{State: core.OpenStates()},
		Tokens: Tokenize(raw),
	}

	for _, token := range compiled.Tokens {
		if !token.IsPair() {
			if token.Value == "" {
				continue
			}
			// Last bare word wins.
			compiled.Filter.Or = []core.IssueFilter{
				{Title: core.Contains(token.Value)},
				{Description: core.Contains(token.Value)},
			}
			continue
		}

		if token.Value == "" {
			continue
		}

		switch token.Key {
		case "assignee":
			if token.Value == MyIssuesValue {
				compiled.IsMyIssues = true
			}
		case "priority":
			// Last token wins; an unknown value clears an earlier one.
			compiled.Priority = ParsePriority(token.Value)
		case "state", "status":
			// Replaces the open-states default rather than narrowing it.
			compiled.Filter.State = &core.StateFilter{Name: core.Equals(token.Value)}
		case "team":
			compiled.Filter.Team = &core.NameFilter{Name: core.Equals(token.Value)}
		case "label":
			compiled.Filter.Labels = &core.NameFilter{Name: core.Equals(token.Value)}
		}
	}

	return compiled
}

var priorityWords = map[string]int{
	"no":     0,
	"urgent": 1,
	"high":   2,
	"medium": 3,
	"low":    4,
}

// urgentOrHigh is the bucket both "2" and "high" resolve to.
var urgentOrHigh = []int{1, 2}

// ParsePriority resolves a priority value. It returns nil for anything
// outside 0-4 and the known words.
func ParsePriority(value string) *core.NumberComparator {
	normalized := strings.ToLower(strings.TrimSpace(value))

	level, err := strconv.Atoi(normalized)
	if err != nil {
		word, ok := priorityWords[normalized]
		if !ok {
			return nil
		}
		level = word
	} else if level < 0 || level > 4 {
		return nil
	}

	if level == 2 {
		return &core.NumberComparator{In: append([]int(nil), urgentOrHigh...)}
	}
	return &core.NumberComparator{Eq: &level}
}
