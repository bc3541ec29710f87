package models

type PageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Self  string  `json:"self"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

// Page is the upstream pagination envelope.
type Page[T any] struct {
	Items []T       `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
	Pages int       `json:"pages"`
	Links PageLinks `json:"links"`
}

// HasNext reports whether another page follows this one.
func (p *Page[T]) HasNext() bool {
	return p.Page < p.Pages
}
