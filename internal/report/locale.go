package report

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/onction/power-dashboard/internal/aggregate"
)

// Locale renders numbers and timestamps for display in documents.
type Locale struct {
	tag      language.Tag
	printer  *message.Printer
	dateTime string
}

var dateTimeLayouts = map[string]string{
	"en-US": "1/2/2006, 3:04:05 PM",
	"en-GB": "02/01/2006, 15:04:05",
	"en-NG": "02/01/2006, 15:04:05",
	"de":    "2.1.2006, 15:04:05",
	"fr":    "02/01/2006 15:04:05",
}

// NewLocale parses a BCP 47 tag such as "en-US".
func NewLocale(name string) (Locale, error) {
	tag, err := language.Parse(name)
	if err != nil {
		return Locale{}, fmt.Errorf("parse locale %q: %w", name, err)
	}
	layout, ok := dateTimeLayouts[tag.String()]
	if !ok {
		base, _ := tag.Base()
		if layout, ok = dateTimeLayouts[base.String()]; !ok {
			layout = "2006-01-02 15:04:05"
		}
	}
	return Locale{tag: tag, printer: message.NewPrinter(tag), dateTime: layout}, nil
}

// MustLocale is NewLocale for compile-time constants.
func MustLocale(name string) Locale {
	l, err := NewLocale(name)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Locale) Tag() language.Tag { return l.tag }

// Number groups thousands and keeps at most three fraction digits.
func (l Locale) Number(v float64) string {
	return l.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}

// Figure renders a rounded statistic; undefined figures read "n/a".
func (l Locale) Figure(f aggregate.Figure) string {
	if f.Undefined() {
		return f.String()
	}
	return l.Number(f.Float64())
}

func (l Locale) DateTime(t time.Time) string {
	return t.Format(l.dateTime)
}
