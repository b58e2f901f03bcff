package model

// Page is the canonical listing envelope produced by the backend for any
// filtered or paginated collection.  The client never recomputes Total or
// Pages; after optimistic local mutations they may be stale.
//
// Fields:
//  Items – the entities on this page.
//  Total – number of entities matching the filters across all pages.
//  Page  – one-based page number.
//  Size  – requested page size.
//  Pages – number of pages at this size.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// WordFilters selects a slice of the word collection.  Zero values mean
// "not set" and are omitted from the query string.
type WordFilters struct {
	Search         string
	WordType       WordType
	Gender         Gender
	Page           int
	Size           int
	IncludePending bool
}
