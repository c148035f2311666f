package retrieval

// Page is one stable window over a ranked candidate list.
type Page struct {
	Results  []Candidate `json:"results"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	HasNext  bool        `json:"has_next"`
	HasPrev  bool        `json:"has_prev"`
}

// Paginator slices ranked lists into 1-indexed pages. It is pure and
// stateless: the same input always yields the same window.
type Paginator struct {
	maxPageSize int
}

// NewPaginator creates a paginator that clamps page sizes to maxPageSize.
func NewPaginator(maxPageSize int) *Paginator {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Paginator{maxPageSize: maxPageSize}
}

// MaxPageSize returns the configured clamp.
func (p *Paginator) MaxPageSize() int { return p.maxPageSize }

// Paginate returns the requested window. Pages beyond the available range
// yield an empty result list with HasNext=false rather than an error.
func (p *Paginator) Paginate(results []Candidate, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > p.maxPageSize {
		pageSize = p.maxPageSize
	}

	total := len(results)
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	window := make([]Candidate, end-start)
	copy(window, results[start:end])

	return Page{
		Results:  window,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  end < total,
		HasPrev:  page > 1 && total > 0,
	}
}
