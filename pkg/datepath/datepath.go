package datepath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

var ones = [...]string{
	"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
}

var tens = [...]string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}

var months = [...]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// Date is a calendar date as addressed by the dashboard. It is not validated
// against the real calendar, so 2025-02-31 is a valid Date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Path is the folder triple a Date resolves to.
type Path struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Day   string `json:"day"`
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q must be in YYYY-MM-DD format", ErrInvalidDate, s)
	}
	values := make([]int, 0, 3)
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v <= 0 {
			return Date{}, fmt.Errorf("%w: %q must consist of three positive numbers", ErrInvalidDate, s)
		}
		values = append(values, v)
	}
	d := Date{Year: values[0], Month: values[1], Day: values[2]}
	if d.Month > 12 {
		return Date{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDate, d.Month)
	}
	if d.Day > 31 {
		return Date{}, fmt.Errorf("%w: day %d out of range", ErrInvalidDate, d.Day)
	}
	return d, nil
}

// MustParseDate is ParseDate for constants and tests.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the date part of t in t's location.
func FromTime(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: int(month), Day: day}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// AddDays moves the date by whole days on the real calendar. Out of range days
// are normalized first, so 2025-02-31 plus one day is 2025-03-04.
func (d Date) AddDays(days int) Date {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 12, 0, 0, 0, time.UTC)
	return FromTime(t.AddDate(0, 0, days))
}

// SameMonth reports whether both dates share year and month.
func (d Date) SameMonth(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month
}

// NumberToWords spells n in English. Only 0..99 is supported.
func NumberToWords(n int) string {
	if n == 0 {
		return "zero"
	}
	if n < 20 {
		return ones[n]
	}
	words := tens[n/10]
	if digit := n % 10; digit != 0 {
		words += "-" + ones[digit]
	}
	return words
}

// MonthName returns the lowercase English name of month 1..12.
func MonthName(month int) string {
	return months[month-1]
}

// Resolve maps a date onto its storage folders. Only the last two digits of
// the year are kept, so 1925 and 2025 share a folder.
func Resolve(d Date) Path {
	return Path{
		Year:  NumberToWords(d.Year % 100),
		Month: MonthName(d.Month),
		Day:   NumberToWords(d.Day),
	}
}

// MonthDir is the month folder relative to the data root.
func (p Path) MonthDir() string {
	return p.Year + "/" + p.Month
}

// MonthKey identifies the month partition set, e.g. "twenty-five-january".
func (p Path) MonthKey() string {
	return p.Year + "-" + p.Month
}

// MonthKeyOf is a shortcut for Resolve(d).MonthKey().
func MonthKeyOf(d Date) string {
	return Resolve(d).MonthKey()
}
