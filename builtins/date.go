package builtins

import (
	"math"
	"strings"
	"time"

	"github.com/example/expressions/runtime"
)

var datePrototype = runtime.NewObject(runtime.ObjectPrototype)

// dateValue is the host state of a Date: milliseconds since the epoch,
// NaN for an invalid date.
type dateValue struct {
	ms float64
}

const maxTimeValue = 8.64e15

func timeClip(ms float64) float64 {
	if math.IsNaN(ms) || math.Abs(ms) > maxTimeValue {
		return math.NaN()
	}

	return math.Trunc(ms) + 0
}

// dateFields are the components a Date is built from, in argument order.
type dateFields [7]float64

func fieldsOf(t time.Time) dateFields {
	return dateFields{
		float64(t.Year()), float64(t.Month() - 1), float64(t.Day()),
		float64(t.Hour()), float64(t.Minute()), float64(t.Second()),
		float64(t.Nanosecond() / 1e6),
	}
}

// makeTime composes fields in loc; out of range fields carry over the way
// time.Date normalizes them.
func makeTime(f dateFields, loc *time.Location) float64 {
	for _, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.NaN()
		}
	}
	t := time.Date(int(f[0]), time.Month(int(f[1])+1), int(f[2]), int(f[3]), int(f[4]), int(f[5]), int(f[6])*1e6, loc)

	return timeClip(float64(t.UnixMilli()))
}

// fieldsFromArgs reads Date(y, m, d, h, min, s, ms) style arguments.
// Two digit years map to 19xx.
func fieldsFromArgs(args []any) dateFields {
	f := dateFields{math.NaN(), 0, 1, 0, 0, 0, 0}
	for i := 0; i < len(args) && i < len(f); i++ {
		f[i] = math.Trunc(runtime.ToNumber(args[i]))
	}
	if f[0] >= 0 && f[0] <= 99 {
		f[0] += 1900
	}

	return f
}

type dateComponent struct {
	name string
	get  func(t time.Time) int
}

var dateComponents = []dateComponent{
	{"FullYear", time.Time.Year},
	{"Month", func(t time.Time) int { return int(t.Month()) - 1 }},
	{"Date", time.Time.Day},
	{"Day", func(t time.Time) int { return int(t.Weekday()) }},
	{"Hours", time.Time.Hour},
	{"Minutes", time.Time.Minute},
	{"Seconds", time.Time.Second},
	{"Milliseconds", func(t time.Time) int { return t.Nanosecond() / 1e6 }},
}

// dateSetters maps setter names to the first field they replace and the
// number of fields they accept.
var dateSetters = []struct {
	name         string
	start, count int
}{
	{"FullYear", 0, 3},
	{"Month", 1, 2},
	{"Date", 2, 1},
	{"Hours", 3, 4},
	{"Minutes", 4, 3},
	{"Seconds", 5, 2},
	{"Milliseconds", 6, 1},
}

func createDateConstructor() *runtime.Function {
	proto := datePrototype

	for _, c := range dateComponents {
		method(proto, "get"+c.name, 0, dateGetter(c.get, time.Local))
		method(proto, "getUTC"+c.name, 0, dateGetter(c.get, time.UTC))
	}
	for _, s := range dateSetters {
		method(proto, "set"+s.name, s.count, dateSetter(s.start, s.count, time.Local))
		method(proto, "setUTC"+s.name, s.count, dateSetter(s.start, s.count, time.UTC))
	}
	method(proto, "getTime", 0, dateValueOf)
	method(proto, "getTimezoneOffset", 0, dateGetTimezoneOffset)
	method(proto, "setTime", 1, dateSetTime)
	method(proto, "toDateString", 0, dateFormatter("Mon Jan 02 2006", time.Local))
	method(proto, "toISOString", 0, dateToISOString)
	method(proto, "toJSON", 1, dateToJSON)
	method(proto, "toLocaleDateString", 0, dateFormatter("1/2/2006", time.Local))
	method(proto, "toLocaleString", 0, dateFormatter("1/2/2006, 3:04:05 PM", time.Local))
	method(proto, "toLocaleTimeString", 0, dateFormatter("3:04:05 PM", time.Local))
	method(proto, "toString", 0, dateFormatter(dateStringLayout, time.Local))
	method(proto, "toTimeString", 0, dateFormatter("15:04:05 GMT-0700 (MST)", time.Local))
	method(proto, "toUTCString", 0, dateFormatter("Mon, 02 Jan 2006 15:04:05 GMT", time.UTC))
	method(proto, "valueOf", 0, dateValueOf)
	symbolMethod(proto, runtime.SymbolToPrimitive, "[Symbol.toPrimitive]", dateToPrimitive)

	ctor := constructor("Date", 7, proto, func(any, []any) (any, error) {
		return formatDate(float64(time.Now().UnixMilli()), dateStringLayout, time.Local), nil
	}, constructDate)
	method(ctor.Object, "UTC", 7, dateUTC)
	method(ctor.Object, "now", 0, dateNow)
	method(ctor.Object, "parse", 1, dateParse)

	return ctor
}

const dateStringLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

func constructDate(args []any, newTarget *runtime.Function) (any, error) {
	var ms float64
	switch len(args) {
	case 0:
		ms = float64(time.Now().UnixMilli())
	case 1:
		if d, ok := internal[*dateValue](args[0]); ok {
			ms = d.ms
			break
		}
		v, err := runtime.ToPrimitive(args[0], "default")
		if err != nil {
			return nil, err
		}
		if s, ok := v.(string); ok {
			ms = parseDate(s)
		} else {
			ms = timeClip(runtime.ToNumber(v))
		}
	default:
		ms = makeTime(fieldsFromArgs(args), time.Local)
	}

	o := runtime.CreateFromConstructor(newTarget, datePrototype)
	o.SetClass("Date")
	o.Internal = &dateValue{ms: ms}

	return o, nil
}

func thisDate(this any, name string) (*dateValue, error) {
	d, ok := internal[*dateValue](this)
	if !ok {
		return nil, runtime.NewTypeError("Date.prototype.%s called on incompatible receiver %s", name, runtime.Inspect(this))
	}

	return d, nil
}

func (d *dateValue) time(loc *time.Location) (time.Time, bool) {
	if math.IsNaN(d.ms) {
		return time.Time{}, false
	}

	return time.UnixMilli(int64(d.ms)).In(loc), true
}

func dateGetter(get func(time.Time) int, loc *time.Location) runtime.NativeFunc {
	return func(this any, _ []any) (any, error) {
		d, err := thisDate(this, "get")
		if err != nil {
			return nil, err
		}
		t, ok := d.time(loc)
		if !ok {
			return math.NaN(), nil
		}
		return float64(get(t)), nil
	}
}

func dateSetter(start, count int, loc *time.Location) runtime.NativeFunc {
	return func(this any, args []any) (any, error) {
		d, err := thisDate(this, "set")
		if err != nil {
			return nil, err
		}
		t, ok := d.time(loc)
		if !ok {
			if start != 0 {
				return math.NaN(), nil
			}
			t = time.Unix(0, 0).In(loc)
		}
		f := fieldsOf(t)
		for i := 0; i < count && i < len(args); i++ {
			f[start+i] = math.Trunc(runtime.ToNumber(args[i]))
		}
		if len(args) == 0 {
			f[start] = math.NaN()
		}
		d.ms = makeTime(f, loc)
		return d.ms, nil
	}
}

func dateValueOf(this any, _ []any) (any, error) {
	d, err := thisDate(this, "valueOf")
	if err != nil {
		return nil, err
	}

	return d.ms, nil
}

func dateSetTime(this any, args []any) (any, error) {
	d, err := thisDate(this, "setTime")
	if err != nil {
		return nil, err
	}
	d.ms = timeClip(argNumber(args, 0))

	return d.ms, nil
}

func dateGetTimezoneOffset(this any, _ []any) (any, error) {
	d, err := thisDate(this, "getTimezoneOffset")
	if err != nil {
		return nil, err
	}
	t, ok := d.time(time.Local)
	if !ok {
		return math.NaN(), nil
	}
	_, offset := t.Zone()

	return float64(-offset / 60), nil
}

func formatDate(ms float64, layout string, loc *time.Location) string {
	if math.IsNaN(ms) {
		return "Invalid Date"
	}

	return time.UnixMilli(int64(ms)).In(loc).Format(layout)
}

func dateFormatter(layout string, loc *time.Location) runtime.NativeFunc {
	return func(this any, _ []any) (any, error) {
		d, err := thisDate(this, "toString")
		if err != nil {
			return nil, err
		}
		return formatDate(d.ms, layout, loc), nil
	}
}

func dateToISOString(this any, _ []any) (any, error) {
	d, err := thisDate(this, "toISOString")
	if err != nil {
		return nil, err
	}
	if math.IsNaN(d.ms) {
		return nil, runtime.NewRangeError("Invalid time value")
	}

	return formatDate(d.ms, "2006-01-02T15:04:05.000Z", time.UTC), nil
}

func dateToJSON(this any, _ []any) (any, error) {
	if d, ok := internal[*dateValue](this); ok && math.IsNaN(d.ms) {
		return nil, nil
	}
	fn, err := runtime.GetMember(this, "toISOString")
	if err != nil {
		return nil, err
	}

	return runtime.Call(fn, this, nil)
}

func dateToPrimitive(this any, args []any) (any, error) {
	d, err := thisDate(this, "[Symbol.toPrimitive]")
	if err != nil {
		return nil, err
	}
	switch argString(args, 0) {
	case "number":
		return d.ms, nil
	case "string", "default":
		return formatDate(d.ms, dateStringLayout, time.Local), nil
	}

	return nil, runtime.NewTypeError("Invalid hint: %s", argString(args, 0))
}

func dateNow(any, []any) (any, error) {
	return float64(time.Now().UnixMilli()), nil
}

func dateUTC(_ any, args []any) (any, error) {
	return makeTime(fieldsFromArgs(args), time.UTC), nil
}

func dateParse(_ any, args []any) (any, error) {
	return parseDate(argString(args, 0)), nil
}

// dateLayouts are tried in order. Date-only ISO forms are UTC; date-time
// forms without an offset are local time.
var dateLayouts = []struct {
	layout string
	loc    *time.Location
}{
	{"2006-01-02T15:04:05.999999999Z07:00", time.UTC},
	{"2006-01-02T15:04:05.999999999", time.Local},
	{"2006-01-02T15:04", time.Local},
	{"2006-01-02", time.UTC},
	{"2006-01", time.UTC},
	{"2006", time.UTC},
	{dateStringLayout, time.Local},
	{"Mon Jan 02 2006 15:04:05 GMT-0700", time.Local},
	{"Mon, 02 Jan 2006 15:04:05 GMT", time.UTC},
	{"Mon Jan 02 2006", time.Local},
	{"January 2, 2006", time.Local},
	{"Jan 2, 2006", time.Local},
	{"1/2/2006", time.Local},
	{"2006/01/02", time.Local},
	{time.RFC1123Z, time.UTC},
}

// parseDate returns the time value of s, NaN when no layout matches.
func parseDate(s string) float64 {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.ParseInLocation(l.layout, s, l.loc); err == nil {
			return timeClip(float64(t.UnixMilli()))
		}
	}

	return math.NaN()
}
