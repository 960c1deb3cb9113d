package features

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidRotationSpec is returned when a rotation string is not recognised.
var ErrInvalidRotationSpec = errors.New("invalid rotation spec")

// RotationKind selects which RotationSpec variant is active.
type RotationKind int

const (
	// RotateNone disables rotation
	RotateNone RotationKind = iota
	// RotateSize rotates once the file grows past Bytes
	RotateSize
	// RotateAge rotates once the last write is more than Days old
	RotateAge
	// RotateCalendar rotates on day, week or month boundaries
	RotateCalendar
)

// CalendarUnit is the period of a calendar rotation.
type CalendarUnit int

const (
	UnitDay CalendarUnit = iota + 1
	UnitWeek
	UnitMonth
)

// RotationSpec describes when the active log file rolls over.
// Exactly one variant is active, selected by Kind.
type RotationSpec struct {
	Kind  RotationKind
	Bytes int64        // RotateSize
	Days  int          // RotateAge
	Unit  CalendarUnit // RotateCalendar
	Every int          // RotateCalendar: rotate every N units
	raw   string
}

// FileMeta is the part of the active file's state the policy looks at.
type FileMeta struct {
	Size    int64
	ModTime time.Time
}

var (
	sizePattern     = regexp.MustCompile(`^(\d+)([KMG])$`)
	agePattern      = regexp.MustCompile(`^(\d+)$`)
	calendarPattern = regexp.MustCompile(`^(\d+)(D|W|MO)$`)
)

// ParseRotationSpec parses a rotation string:
//
//	"10M", "512K", "1G"        size threshold
//	"7"                        age in days
//	"daily", "weekly", "monthly", "3d", "2w", "6mo"  calendar
//
// An empty string disables rotation.
func ParseRotationSpec(s string) (RotationSpec, error) {
	raw := strings.TrimSpace(s)
	norm := strings.ToUpper(raw)

	switch norm {
	case "":
		return RotationSpec{Kind: RotateNone}, nil
	case "DAILY":
		return RotationSpec{Kind: RotateCalendar, Unit: UnitDay, Every: 1, raw: raw}, nil
	case "WEEKLY":
		return RotationSpec{Kind: RotateCalendar, Unit: UnitWeek, Every: 1, raw: raw}, nil
	case "MONTHLY":
		return RotationSpec{Kind: RotateCalendar, Unit: UnitMonth, Every: 1, raw: raw}, nil
	}

	if m := sizePattern.FindStringSubmatch(norm); m != nil {
		n, err := positive(m[1], raw)
		if err != nil {
			return RotationSpec{}, err
		}
		var mult int64
		switch m[2] {
		case "K":
			mult = 1 << 10
		case "M":
			mult = 1 << 20
		case "G":
			mult = 1 << 30
		}
		if int64(n) > math.MaxInt64/mult {
			return RotationSpec{}, errors.Wrapf(ErrInvalidRotationSpec, "%q: size too large", raw)
		}
		return RotationSpec{Kind: RotateSize, Bytes: int64(n) * mult, raw: raw}, nil
	}

	if m := agePattern.FindStringSubmatch(norm); m != nil {
		n, err := positive(m[1], raw)
		if err != nil {
			return RotationSpec{}, err
		}
		return RotationSpec{Kind: RotateAge, Days: n, raw: raw}, nil
	}

	if m := calendarPattern.FindStringSubmatch(norm); m != nil {
		n, err := positive(m[1], raw)
		if err != nil {
			return RotationSpec{}, err
		}
		spec := RotationSpec{Kind: RotateCalendar, Every: n, raw: raw}
		switch m[2] {
		case "D":
			spec.Unit = UnitDay
		case "W":
			spec.Unit = UnitWeek
		case "MO":
			spec.Unit = UnitMonth
		}
		return spec, nil
	}

	return RotationSpec{}, errors.Wrapf(ErrInvalidRotationSpec, "%q", s)
}

func positive(digits, raw string) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, errors.Wrapf(ErrInvalidRotationSpec, "%q: count must be a positive integer", raw)
	}
	return n, nil
}

// Enabled reports whether any rotation variant is active.
func (r RotationSpec) Enabled() bool {
	return r.Kind != RotateNone
}

// String returns the rotation string in the form it was parsed from.
func (r RotationSpec) String() string {
	return r.raw
}

// ShouldRotate decides, given the active file's metadata, whether it must
// roll over before the next write.
func (r RotationSpec) ShouldRotate(meta FileMeta, now time.Time) bool {
	switch r.Kind {
	case RotateSize:
		return meta.Size > r.Bytes
	case RotateAge:
		return int(now.Sub(meta.ModTime)/(24*time.Hour)) > r.Days
	case RotateCalendar:
		return r.calendarDue(meta.ModTime, now)
	default:
		return false
	}
}

func (r RotationSpec) calendarDue(last, now time.Time) bool {
	every := r.Every
	if every < 1 {
		every = 1
	}

	switch r.Unit {
	case UnitDay:
		return daysBetween(last, now) >= every
	case UnitWeek:
		return daysBetween(last, now) >= 7*every
	case UnitMonth:
		last = last.In(now.Location())
		months := (now.Year()-last.Year())*12 + int(now.Month()) - int(last.Month())
		return months >= every
	default:
		return false
	}
}

// daysBetween counts calendar dates between a and b in b's location.
func daysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da) / (24 * time.Hour))
}
