// Package listview owns the client-side derivation state of a record
// list: fetch lifecycle, sort order, pagination window, the rolling date
// filter and the running total. It performs no I/O of its own beyond the
// injected fetcher.
package listview

import (
	"context"
	"sort"
	"time"

	"carlog/internal/core"
)

// Phase is the fetch lifecycle of a mounted list.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Errored
)

// SortDirection orders the visible rows.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// DateFilter is the rolling lower bound applied to fetched records.
type DateFilter string

const (
	FilterMonth   DateFilter = "1m"
	FilterQuarter DateFilter = "3m"
	FilterYear    DateFilter = "1y"
	FilterAll     DateFilter = "all"
)

// Filters lists the selectable periods in display order.
var Filters = []DateFilter{FilterMonth, FilterQuarter, FilterYear, FilterAll}

// Label returns the filter's display name.
func (f DateFilter) Label() string {
	switch f {
	case FilterMonth:
		return "1 Month"
	case FilterQuarter:
		return "3 Months"
	case FilterYear:
		return "1 Year"
	default:
		return "All Time"
	}
}

// Cutoff computes the filter's lower-bound date relative to now. The
// subtraction is calendar-aware: going back a month keeps the day of
// month where the target month allows it. All-time has no bound.
func (f DateFilter) Cutoff(now time.Time) (core.Date, bool) {
	switch f {
	case FilterMonth:
		return core.DateOf(now.AddDate(0, -1, 0)), true
	case FilterQuarter:
		return core.DateOf(now.AddDate(0, -3, 0)), true
	case FilterYear:
		return core.DateOf(now.AddDate(-1, 0, 0)), true
	default:
		return core.Date{}, false
	}
}

// PageSizes is the fixed set of selectable rows-per-page values.
var PageSizes = []int{5, 10, 25}

const defaultPageSize = 5

// Compare reports whether a sorts before b under ascending order.
type Compare[T any] func(a, b T) bool

// Fetcher loads the full row set, with an optional lower bound on the
// record date applied store-side.
type Fetcher[T any] func(ctx context.Context, from *core.Date) ([]T, error)

// Controller derives the visible page of one record list. It is not
// safe for concurrent use; the owning session state serializes access.
type Controller[T any] struct {
	fetch   Fetcher[T]
	compare map[string]Compare[T]
	amount  func(T) int64
	now     func() time.Time

	phase   Phase
	loadErr string
	rows    []T

	defaultSort string
	sortKey     string
	sortDir     SortDirection
	page        int
	pageSize    int

	filterable bool
	filter     DateFilter

	epoch int
}

// New builds a controller. compare maps sort keys to ascending
// comparators; amount extracts the cents summed into Total. defaultSort
// names the initial sort key, applied descending to match fetch order.
// filterable enables the rolling date filter (fuel lists only).
func New[T any](fetch Fetcher[T], compare map[string]Compare[T], amount func(T) int64, defaultSort string, filterable bool) *Controller[T] {
	return &Controller[T]{
		fetch:       fetch,
		compare:     compare,
		amount:      amount,
		now:         time.Now,
		defaultSort: defaultSort,
		sortKey:     defaultSort,
		sortDir:     Descending,
		pageSize:    defaultPageSize,
		filterable:  filterable,
		filter:      FilterMonth,
	}
}

// SetClock overrides the time source used for filter cutoffs.
func (c *Controller[T]) SetClock(now func() time.Time) {
	c.now = now
}

// Refresh fetches the full row set under the active filter. A refresh
// that loses a race with Reset leaves the newer state untouched.
func (c *Controller[T]) Refresh(ctx context.Context) {
	c.phase = Loading
	c.loadErr = ""
	epoch := c.epoch

	var from *core.Date
	if c.filterable {
		if cutoff, ok := c.filter.Cutoff(c.now()); ok {
			from = &cutoff
		}
	}

	rows, err := c.fetch(ctx, from)
	if epoch != c.epoch {
		return
	}
	if err != nil {
		c.phase = Errored
		c.loadErr = err.Error()
		return
	}
	c.phase = Ready
	c.rows = rows
}

// Reset returns the controller to its mount state: filter and window
// cleared, rows dropped, any in-flight refresh invalidated.
func (c *Controller[T]) Reset() {
	c.epoch++
	c.phase = Idle
	c.loadErr = ""
	c.rows = nil
	c.page = 0
	c.pageSize = defaultPageSize
	c.sortKey = c.defaultSort
	c.sortDir = Descending
	c.filter = FilterMonth
}

// SetFilter switches the rolling period and reports whether a refetch is
// needed. Ignored on lists without a filter.
func (c *Controller[T]) SetFilter(f DateFilter) bool {
	if !c.filterable || f == c.filter {
		return false
	}
	c.filter = f
	c.page = 0
	return true
}

// Filter returns the active period.
func (c *Controller[T]) Filter() DateFilter {
	return c.filter
}

// Filterable reports whether this list carries a date filter.
func (c *Controller[T]) Filterable() bool {
	return c.filterable
}

// SetSort flips the direction when key is already active, otherwise
// selects key ascending. Unknown keys are ignored. Re-derivation is
// purely local; no refetch happens.
func (c *Controller[T]) SetSort(key string) {
	if _, ok := c.compare[key]; !ok {
		return
	}
	if key == c.sortKey {
		if c.sortDir == Ascending {
			c.sortDir = Descending
		} else {
			c.sortDir = Ascending
		}
		return
	}
	c.sortKey = key
	c.sortDir = Ascending
}

// Sort returns the active sort key and direction.
func (c *Controller[T]) Sort() (string, SortDirection) {
	return c.sortKey, c.sortDir
}

// SetPage clamps n into the valid page range for the current row count.
func (c *Controller[T]) SetPage(n int) {
	max := c.maxPage()
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	c.page = n
}

// SetPageSize switches the window size and rewinds to the first page.
// Sizes outside the fixed option set are ignored.
func (c *Controller[T]) SetPageSize(n int) {
	for _, allowed := range PageSizes {
		if n == allowed {
			c.pageSize = n
			c.page = 0
			return
		}
	}
}

// Page returns the zero-based page index.
func (c *Controller[T]) Page() int { return c.page }

// PageSize returns the rows-per-page setting.
func (c *Controller[T]) PageSize() int { return c.pageSize }

// PageCount returns the number of pages for the current row count, at
// least 1.
func (c *Controller[T]) PageCount() int {
	return c.maxPage() + 1
}

func (c *Controller[T]) maxPage() int {
	if len(c.rows) == 0 {
		return 0
	}
	return (len(c.rows) - 1) / c.pageSize
}

// Rows returns the full fetched set in fetch order.
func (c *Controller[T]) Rows() []T { return c.rows }

// sorted returns a stably sorted copy of the fetched set; ties keep
// their fetch order.
func (c *Controller[T]) sorted() []T {
	out := make([]T, len(c.rows))
	copy(out, c.rows)
	less := c.compare[c.sortKey]
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c.sortDir == Ascending {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}

// VisibleRows returns the sorted slice for the current page.
func (c *Controller[T]) VisibleRows() []T {
	sorted := c.sorted()
	start := c.page * c.pageSize
	if start >= len(sorted) {
		return nil
	}
	end := start + c.pageSize
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end]
}

// EmptyRows returns the padding row count on the current page, keeping
// the table height stable on the final page. An empty set gets no
// padding; the table renders its placeholder row instead.
func (c *Controller[T]) EmptyRows() int {
	if len(c.rows) == 0 {
		return 0
	}
	return c.pageSize - len(c.VisibleRows())
}

// Total sums the amounts over the whole fetched set, so it reflects the
// filter but never the pagination window.
func (c *Controller[T]) Total() core.Money {
	var cents int64
	for _, r := range c.rows {
		cents += c.amount(r)
	}
	return core.Money{Cents: cents}
}

// Phase returns the fetch lifecycle state.
func (c *Controller[T]) Phase() Phase { return c.phase }

// LoadError returns the message of a failed fetch, empty otherwise.
func (c *Controller[T]) LoadError() string { return c.loadErr }
