package api

import (
	"errors"
	"net/url"
	"strconv"
)

const defaultPageSize = 10

// page holds 1-based paging parameters for a list response.
type page struct {
	start int
	size  int
}

// window is the half-open slice of a result set covered by a page.
type window struct {
	from  int
	to    int
	count int
}

// parsePage reads pageSize plus one of start, startIndex or pageIndex
// from the query string.
func parsePage(values url.Values) (page, error) {
	p := page{start: 1, size: defaultPageSize}
	if raw := values.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return page{}, errors.New("pageSize must be a positive integer")
		}
		p.size = size
	}
	for _, key := range []string{"start", "startIndex"} {
		raw := values.Get(key)
		if raw == "" {
			continue
		}
		start, err := strconv.Atoi(raw)
		if err != nil || start < 1 {
			return page{}, errors.New(key + " must be a positive integer")
		}
		p.start = start
		return p, nil
	}
	if raw := values.Get("pageIndex"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil || index < 1 {
			return page{}, errors.New("pageIndex must be a positive integer")
		}
		p.start = (index-1)*p.size + 1
	}
	return p, nil
}

func (p page) slice(total int) window {
	from := p.start - 1
	if from > total {
		from = total
	}
	to := from + p.size
	if to > total {
		to = total
	}
	return window{from: from, to: to, count: to - from}
}

func (p page) index() int {
	return (p.start-1)/p.size + 1
}

func (p page) totalPages(total int) int {
	if total == 0 {
		return 0
	}
	return (total + p.size - 1) / p.size
}

func (p page) nextStart(total int) (int, bool) {
	next := p.start + p.size
	if next > total {
		return 0, false
	}
	return next, true
}

func (p page) previousStart() (int, bool) {
	if p.start <= 1 {
		return 0, false
	}
	prev := p.start - p.size
	if prev < 1 {
		prev = 1
	}
	return prev, true
}

// pageLink builds a list URL preserving the search query.
func pageLink(path, query string, start, size int) string {
	values := url.Values{}
	if query != "" {
		values.Set("q", query)
	}
	values.Set("start", strconv.Itoa(start))
	values.Set("pageSize", strconv.Itoa(size))
	return path + "?" + values.Encode()
}
