package filters

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Filter names
const (
	DS             = "ds"
	DSNoDash       = "ds_nodash"
	TS             = "ts"
	TSNoDash       = "ts_nodash"
	TSNoDashWithTZ = "ts_nodash_with_tz"
)

// ErrUnsupportedType is returned when a filter receives a value that is not
// date or time like.
var ErrUnsupportedType = errors.New("unsupported value type")

// Func is a filter function. It receives the piped value and any extra
// arguments given in the template.
type Func func(in any, args ...any) (any, error)

// Builtins returns a fresh registry holding the date filters.
func Builtins() map[string]Func {
	return map[string]Func{
		DS:             dateFilter(formatDS),
		DSNoDash:       dateFilter(formatDSNoDash),
		TS:             dateFilter(formatTS),
		TSNoDash:       dateFilter(formatTSNoDash),
		TSNoDashWithTZ: dateFilter(formatTSNoDashWithTZ),
	}
}

// Apply runs the named builtin filter on a single value.
func Apply(name string, in any) (any, error) {
	f, ok := Builtins()[name]
	if !ok {
		return nil, fmt.Errorf("unknown filter %q", name)
	}
	return f(in)
}

// dateFilter adapts a moment formatter to the filter signature
func dateFilter(format func(moment) string) Func {
	return func(in any, _ ...any) (any, error) {
		m, ok, err := toMoment(in)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return format(m), nil
	}
}

// moment is the broken down form shared by every supported input type
type moment struct {
	year   int
	month  time.Month
	day    int
	hour   int
	minute int
	second int
	micro  int

	// offset in seconds east of UTC; nil for naive values
	offset *int

	hasDate  bool
	hasClock bool
}

// toMoment converts a supported value. ok is false for nil inputs.
func toMoment(in any) (moment, bool, error) {
	switch v := in.(type) {
	case nil:
		return moment{}, false, nil
	case *time.Time:
		if v == nil {
			return moment{}, false, nil
		}
		return fromTime(*v), true, nil
	case time.Time:
		return fromTime(v), true, nil
	case civil.Date:
		return moment{year: v.Year, month: v.Month, day: v.Day, hasDate: true}, true, nil
	case civil.DateTime:
		m := fromClock(v.Time)
		m.year, m.month, m.day = v.Date.Year, v.Date.Month, v.Date.Day
		m.hasDate = true
		return m, true, nil
	case civil.Time:
		// strftime on a bare time uses 1900-01-01 for the date directives
		m := fromClock(v)
		m.year, m.month, m.day = 1900, time.January, 1
		return m, true, nil
	default:
		return moment{}, false, fmt.Errorf("%w: %T", ErrUnsupportedType, in)
	}
}

func fromTime(t time.Time) moment {
	_, offset := t.Zone()
	return moment{
		year:     t.Year(),
		month:    t.Month(),
		day:      t.Day(),
		hour:     t.Hour(),
		minute:   t.Minute(),
		second:   t.Second(),
		micro:    t.Nanosecond() / int(time.Microsecond),
		offset:   &offset,
		hasDate:  true,
		hasClock: true,
	}
}

func fromClock(c civil.Time) moment {
	return moment{
		hour:     c.Hour,
		minute:   c.Minute,
		second:   c.Second,
		micro:    c.Nanosecond / int(time.Microsecond),
		hasClock: true,
	}
}

func formatDS(m moment) string {
	return fmt.Sprintf("%04d-%02d-%02d", m.year, int(m.month), m.day)
}

func formatDSNoDash(m moment) string {
	return fmt.Sprintf("%04d%02d%02d", m.year, int(m.month), m.day)
}

func formatTSNoDash(m moment) string {
	return fmt.Sprintf("%04d%02d%02dT%02d%02d%02d", m.year, int(m.month), m.day, m.hour, m.minute, m.second)
}

// formatTS renders the ISO-8601 form, keeping the offset when the value has one
func formatTS(m moment) string {
	switch {
	case m.hasDate && !m.hasClock:
		return formatDS(m)
	case !m.hasDate:
		return formatClock(m)
	default:
		return formatDS(m) + "T" + formatClock(m)
	}
}

func formatTSNoDashWithTZ(m moment) string {
	return strings.NewReplacer("-", "", ":", "").Replace(formatTS(m))
}

func formatClock(m moment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d:%02d:%02d", m.hour, m.minute, m.second)
	if m.micro != 0 {
		fmt.Fprintf(&b, ".%06d", m.micro)
	}
	if m.offset != nil {
		b.WriteString(formatOffset(*m.offset))
	}
	return b.String()
}

func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
