package pagination

const (
	// DefaultPageSize is the number of products revealed per "load more" step.
	DefaultPageSize = 12
	// MaxPageSize caps how many rows one step can reveal.
	MaxPageSize = 100
)

// Params holds load-more inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Normalize enforces page >= 1 and the configured default and maximum page sizes.
func Normalize(p Params) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Window returns the prefix list[:min(len, page*pageSize)] and whether more rows remain.
// Pages accumulate: page 2 includes the rows of page 1.
func Window[T any](list []T, p Params) ([]T, bool) {
	p = Normalize(p)
	end := p.Page * p.PageSize
	if end >= len(list) {
		return list, false
	}
	return list[:end], true
}
