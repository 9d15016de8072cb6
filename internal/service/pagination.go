package service

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	TeamsPerPage    = 10
	ProjectsPerPage = 10
	TasksPerPage    = 20
)

// Page describes one page of a listing.
type Page struct {
	Number int
	Size   int
	Total  int64
	Pages  int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }
func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.Pages }
func (p Page) Prev() int { return p.Number - 1 }
func (p Page) Next() int { return p.Number + 1 }
func (p Page) Paginated() bool { return p.Pages > 1 }

// ParsePage reads a 1-based page number; an empty value means the first page.
func ParsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("page %q: %w", raw, ErrNotFound)
	}
	return n, nil
}

// resolvePage checks number against total items; an out of range page other
// than the first is ErrNotFound.
func resolvePage(number, size int, total int64) (Page, error) {
	pages := int((total + int64(size) - 1) / int64(size))
	if pages == 0 {
		pages = 1
	}
	if number < 1 || number > pages {
		return Page{}, fmt.Errorf("page %d of %d: %w", number, pages, ErrNotFound)
	}
	return Page{Number: number, Size: size, Total: total, Pages: pages}, nil
}
