package service

const (
	// DefaultCampaignPageSize is the campaign listing page size when none is given.
	DefaultCampaignPageSize = 12
	// DefaultDonationPageSize is the donation listing page size when none is given.
	DefaultDonationPageSize = 20
	// MaxPageSize caps every listing.
	MaxPageSize = 100
)

// Pagination describes the page a listing returned.
type Pagination struct {
	Page  int
	Limit int
	Total int64
}

// Pages is the number of pages needed for Total items.
func (p Pagination) Pages() int {
	if p.Limit <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

func (p Pagination) offset() int {
	return (p.Page - 1) * p.Limit
}

// newPagination clamps page to >= 1 and limit to 1..MaxPageSize.
func newPagination(page, limit, defaultLimit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}
