// Package audit reads back the trail the ledger and the journal write into audit_logs.
package audit

import "time"

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Filters narrows the timeline. From is inclusive and To exclusive; a zero bound is open.
type Filters struct {
	From     time.Time
	To       time.Time
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// Entry is one audit record.
type Entry struct {
	ID       int64          `json:"id"`
	At       time.Time      `json:"at"`
	ActorID  int64          `json:"actor_id,omitempty"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Paging describes the page a Result holds.
type Paging struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result is one page of the timeline, newest first.
type Result struct {
	Entries []Entry `json:"entries"`
	Paging  Paging  `json:"paging"`
}

// Query is what a Repository executes. Limit 0 returns every matching row.
type Query struct {
	From   time.Time
	To     time.Time
	Entity string
	Action string
	Offset int
	Limit  int
}

// Matches reports whether e passes the query's filters. Offset and Limit are ignored.
func (q Query) Matches(e Entry) bool {
	if !q.From.IsZero() && e.At.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !e.At.Before(q.To) {
		return false
	}
	if q.Entity != "" && e.Entity != q.Entity {
		return false
	}
	if q.Action != "" && e.Action != q.Action {
		return false
	}
	return true
}
