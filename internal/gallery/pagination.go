package gallery

const (
	DefaultPageSize      = 18
	DefaultPageIncrement = 12
)

// Paginator is the visible-count cursor over the filtered list.
type Paginator struct {
	pageSize  int
	increment int
	count     int
	limit     int
}

func NewPaginator(pageSize, increment int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if increment <= 0 {
		increment = DefaultPageIncrement
	}
	return &Paginator{pageSize: pageSize, increment: increment, count: pageSize}
}

func (p *Paginator) PageSize() int { return p.pageSize }

// Reset returns the cursor to the initial page size.
func (p *Paginator) Reset() {
	p.count = p.pageSize
}

// SetLimit updates the clamp target, normally the filtered length.
func (p *Paginator) SetLimit(n int) {
	if n < 0 {
		n = 0
	}
	p.limit = n
}

// Grow extends the cursor by one increment, clamped to the limit. The
// cursor never shrinks, so a short list keeps the initial page size for when
// the list grows again.
func (p *Paginator) Grow() {
	p.count = max(p.count, min(p.count+p.increment, p.limit))
}

// Restore sets the cursor to n, used when the count arrives from outside
// (a URL parameter, a saved view). Values below the page size are raised.
func (p *Paginator) Restore(n int) {
	p.count = max(n, p.pageSize)
}

// VisibleCount never exceeds the limit.
func (p *Paginator) VisibleCount() int {
	return max(0, min(p.count, p.limit))
}

// HasMore reports whether growing would reveal more items.
func (p *Paginator) HasMore() bool {
	return p.VisibleCount() < p.limit
}

// ScrollController ties a Paginator to sentinel visibility notifications.
// Events only count while it is observing.
type ScrollController struct {
	pager     *Paginator
	observing bool
}

func NewScrollController(pager *Paginator) *ScrollController {
	return &ScrollController{pager: pager}
}

// Observe (re)subscribes with a new clamp target.
func (s *ScrollController) Observe(filteredLen int) {
	s.observing = true
	s.pager.SetLimit(filteredLen)
}

// Observing reports whether a subscription is active.
func (s *ScrollController) Observing() bool {
	return s.observing
}

// SentinelVisible handles one intersection notification. It returns true if
// the visible count grew.
func (s *ScrollController) SentinelVisible() bool {
	if !s.observing {
		return false
	}
	before := s.pager.VisibleCount()
	s.pager.Grow()
	return s.pager.VisibleCount() > before
}

// Disconnect drops the subscription.
func (s *ScrollController) Disconnect() {
	s.observing = false
}
