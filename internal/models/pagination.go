package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// SortOrder values accepted by list endpoints.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// ListOptions carries the sort and paging knobs shared by every list endpoint.
type ListOptions struct {
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}
