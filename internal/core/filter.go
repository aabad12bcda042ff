package core

// IssueFilter is the subset of Linear's IssueFilter input produced by the
// query compiler. Unset fields are omitted from the GraphQL variables.
type IssueFilter struct {
	State       *StateFilter      `json:"state,omitempty"`
	Team        *NameFilter       `json:"team,omitempty"`
	Labels      *NameFilter       `json:"labels,omitempty"`
	Priority    *NumberComparator `json:"priority,omitempty"`
	Title       *StringComparator `json:"title,omitempty"`
	Description *StringComparator `json:"description,omitempty"`
	Or          []IssueFilter     `json:"or,omitempty"`
}

// StateFilter matches on workflow state name or type.
type StateFilter struct {
	Name *StringComparator `json:"name,omitempty"`
	Type *StringComparator `json:"type,omitempty"`
}

// NameFilter matches a related record by name.
type NameFilter struct {
	Name *StringComparator `json:"name,omitempty"`
}

// StringComparator is a Linear string comparator.
type StringComparator struct {
	Eq       *string  `json:"eq,omitempty"`
	Contains *string  `json:"contains,omitempty"`
	Nin      []string `json:"nin,omitempty"`
}

// NumberComparator is a Linear number comparator.
type NumberComparator struct {
	Eq *int  `json:"eq,omitempty"`
	In []int `json:"in,omitempty"`
}

// Equals returns a comparator matching value exactly.
func Equals(value string) *StringComparator {
	return &StringComparator{Eq: &value}
}

// Contains returns a comparator matching values containing substr.
func Contains(substr string) *StringComparator {
	return &StringComparator{Contains: &substr}
}

// OpenStates excludes completed and canceled issues.
func OpenStates() *StateFilter {
	return &StateFilter{Type: &StringComparator{Nin: []string{StateTypeCompleted, StateTypeCanceled}}}
}
