package seo

import "errors"

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 24

// ErrPageOutOfRange is returned for page numbers below 1 or past the last page.
var ErrPageOutOfRange = errors.New("page out of range")

// Page describes one window over an ordered list.
type Page struct {
	Number     int `json:"page"`
	Size       int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Offset     int `json:"-"`
	End        int `json:"-"`
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Prev returns the previous page number, or 0 when on the first page.
func (p Page) Prev() int {
	if !p.HasPrev() {
		return 0
	}
	return p.Number - 1
}

// Next returns the following page number, or 0 when on the last page.
func (p Page) Next() int {
	if !p.HasNext() {
		return 0
	}
	return p.Number + 1
}

// Paginate computes the window for page (1-based) over total items.
// An empty list still has one (empty) page.
func Paginate(total, page, size int) (Page, error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	totalPages := (total + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 || page > totalPages {
		return Page{}, ErrPageOutOfRange
	}
	offset := (page - 1) * size
	end := offset + size
	if end > total {
		end = total
	}
	return Page{
		Number:     page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		Offset:     offset,
		End:        end,
	}, nil
}

// PaginateCountries returns one page of the priority country list.
func PaginateCountries(page, size int) ([]Country, Page, error) {
	p, err := Paginate(len(priorityCountries), page, size)
	if err != nil {
		return nil, Page{}, err
	}
	out := make([]Country, p.End-p.Offset)
	copy(out, priorityCountries[p.Offset:p.End])
	return out, p, nil
}
