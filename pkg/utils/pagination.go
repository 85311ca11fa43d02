package utils

const (
	DefaultPage = 1
	MaxLimit    = 100
	// MaxPage keeps (page-1)*MaxLimit far inside int range.
	MaxPage = 1_000_000
)

// NormalizePage clamps page and limit to usable values, falling back to
// defaultLimit when limit is not positive. Pages past MaxPage are clamped
// to it and simply come back empty.
func NormalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func Offset(page, limit int) int {
	return (page - 1) * limit
}

func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
