package features

import (
	"os/user"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/types"
	"golang.org/x/time/rate"
)

// ErrNilFilter is returned when a nil filter is passed
var ErrNilFilter = errors.New("filter cannot be nil")

// Filter decides whether a record continues down the pipeline.
type Filter interface {
	ShouldLog(rec *types.Record) bool
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc func(rec *types.Record) bool

// ShouldLog implements Filter.
func (f FilterFunc) ShouldLog(rec *types.Record) bool {
	return f(rec)
}

// FilterChain holds filters evaluated in order. A record passes only if
// every filter passes; evaluation stops at the first rejection.
type FilterChain struct {
	mu      sync.RWMutex
	filters []Filter
}

// NewFilterChain creates a chain from filters.
func NewFilterChain(filters ...Filter) *FilterChain {
	c := &FilterChain{}
	for _, f := range filters {
		_ = c.Add(f)
	}
	return c
}

// Add appends a filter.
func (c *FilterChain) Add(f Filter) error {
	if f == nil {
		return ErrNilFilter
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, f)
	return nil
}

// Clear removes every filter.
func (c *FilterChain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = nil
}

// Len returns the number of filters.
func (c *FilterChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.filters)
}

// ShouldLog implements Filter.
func (c *FilterChain) ShouldLog(rec *types.Record) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.filters {
		if !f.ShouldLog(rec) {
			return false
		}
	}
	return true
}

// TimeFilter passes records whose timestamp falls inside a daily window.
// Start and End are offsets from local midnight; a window with End before
// Start wraps past midnight. An empty Weekdays set allows every day.
type TimeFilter struct {
	Start    time.Duration
	End      time.Duration
	Weekdays []time.Weekday
	Location *time.Location
}

// ShouldLog implements Filter.
func (f *TimeFilter) ShouldLog(rec *types.Record) bool {
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	ts := rec.Timestamp.In(loc)

	if len(f.Weekdays) > 0 {
		allowed := false
		for _, d := range f.Weekdays {
			if ts.Weekday() == d {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if f.Start == f.End {
		return true
	}
	offset := time.Duration(ts.Hour())*time.Hour +
		time.Duration(ts.Minute())*time.Minute +
		time.Duration(ts.Second())*time.Second
	if f.Start < f.End {
		return offset >= f.Start && offset < f.End
	}
	return offset >= f.Start || offset < f.End
}

// UserFilter passes or rejects records by the current OS user name.
// With Include set only those users pass; names in Exclude never pass.
type UserFilter struct {
	Include []string
	Exclude []string

	once    sync.Once
	current string
}

// NewUserFilter creates a user filter for the current OS user.
func NewUserFilter(include, exclude []string) *UserFilter {
	return &UserFilter{Include: include, Exclude: exclude}
}

func (f *UserFilter) username() string {
	f.once.Do(func() {
		if f.current != "" {
			return
		}
		if u, err := user.Current(); err == nil {
			f.current = u.Username
		}
	})
	return f.current
}

// ShouldLog implements Filter.
func (f *UserFilter) ShouldLog(_ *types.Record) bool {
	name := f.username()
	for _, ex := range f.Exclude {
		if strings.EqualFold(ex, name) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, in := range f.Include {
		if strings.EqualFold(in, name) {
			return true
		}
	}
	return false
}

// GlobFilter matches the record message against a glob pattern.
type GlobFilter struct {
	pattern glob.Glob
	exclude bool
}

// NewGlobFilter compiles pattern. When exclude is true, matching records are
// dropped instead of kept.
func NewGlobFilter(pattern string, exclude bool) (*GlobFilter, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "compile glob %q", pattern)
	}
	return &GlobFilter{pattern: g, exclude: exclude}, nil
}

// ShouldLog implements Filter.
func (f *GlobFilter) ShouldLog(rec *types.Record) bool {
	return f.pattern.Match(rec.Message) != f.exclude
}

// RateFilter caps throughput with a token bucket. Records at or above
// Bypass severity (lower numeric level) always pass.
type RateFilter struct {
	limiter *rate.Limiter
	bypass  types.Level
}

// NewRateFilter allows perSecond records with the given burst. A zero bypass
// level subjects every record to the limit.
func NewRateFilter(perSecond float64, burst int, bypass types.Level) *RateFilter {
	return &RateFilter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		bypass:  bypass,
	}
}

// ShouldLog implements Filter.
func (f *RateFilter) ShouldLog(rec *types.Record) bool {
	if f.bypass != 0 && rec.Level.Enabled(f.bypass) {
		return true
	}
	return f.limiter.AllowN(rec.Timestamp, 1)
}

// PropertyFilter passes records whose scoped property Key equals Value.
// With Negate set the match is inverted.
type PropertyFilter struct {
	Key    string
	Value  interface{}
	Negate bool
}

// ShouldLog implements Filter.
func (f *PropertyFilter) ShouldLog(rec *types.Record) bool {
	v, ok := rec.Properties[f.Key]
	match := ok && reflect.DeepEqual(v, f.Value)
	return match != f.Negate
}

// LevelFilter passes records whose level is one of Levels.
type LevelFilter struct {
	Levels []types.Level
}

// ShouldLog implements Filter.
func (f *LevelFilter) ShouldLog(rec *types.Record) bool {
	for _, l := range f.Levels {
		if rec.Level == l {
			return true
		}
	}
	return false
}
