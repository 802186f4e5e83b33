// Package calendar lays out a year as month grids and renders it as an HTML
// table, marking days that carry at least one deadline.
package calendar

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultColumns = 4
	dayKeyLayout   = "20060102"
)

type Day struct {
	Date    time.Time
	InMonth bool
	Marked  bool
	Today   bool
	Link    string
}

// Class is the CSS class of the day cell.
func (d Day) Class() string {
	switch {
	case !d.InMonth:
		return "noday"
	case d.Marked && d.Today:
		return "marked today"
	case d.Marked:
		return "marked"
	case d.Today:
		return "today"
	default:
		return "day " + weekdayAbbr(d.Date.Weekday())
	}
}

type Week [7]Day

type Month struct {
	Year  int
	Month time.Month
	Weeks []Week
}

func (m Month) Name() string {
	return m.Month.String()
}

type Year struct {
	Year     int
	Weekdays []string
	Rows     [][]Month
}

// Calendar marks the days whose YYYYMMDD key is present in Marked and links
// them to the owner's day page.
type Calendar struct {
	Username     string
	Marked       map[string]bool
	FirstWeekday time.Weekday
	Today        time.Time
}

func New(username string, marked map[string]bool) *Calendar {
	if marked == nil {
		marked = map[string]bool{}
	}
	return &Calendar{
		Username:     username,
		Marked:       marked,
		FirstWeekday: time.Monday,
	}
}

// DayKey formats t as the key used in Calendar.Marked.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// DayLink is the path of username's page for the calendar day of t.
func DayLink(username string, t time.Time) string {
	return fmt.Sprintf("/todo/%s/%04d/%02d/%02d", url.PathEscape(username), t.Year(), int(t.Month()), t.Day())
}

func (c *Calendar) Month(year int, month time.Month) Month {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) - int(c.FirstWeekday) + 7) % 7
	cursor := first.AddDate(0, 0, -offset)

	todayKey := ""
	if !c.Today.IsZero() {
		todayKey = DayKey(c.Today)
	}

	m := Month{Year: year, Month: month}
	for {
		var week Week
		for i := range week {
			key := DayKey(cursor)
			day := Day{Date: cursor, InMonth: cursor.Month() == month}
			if day.InMonth {
				day.Today = key == todayKey
				if c.Marked[key] {
					day.Marked = true
					day.Link = DayLink(c.Username, cursor)
				}
			}
			week[i] = day
			cursor = cursor.AddDate(0, 0, 1)
		}
		m.Weeks = append(m.Weeks, week)
		if cursor.Month() != month {
			break
		}
	}
	return m
}

// Year lays the twelve months out in rows of columns months each.
func (c *Calendar) Year(year, columns int) Year {
	if columns <= 0 {
		columns = DefaultColumns
	}

	y := Year{Year: year}
	for i := 0; i < 7; i++ {
		y.Weekdays = append(y.Weekdays, weekdayAbbr(time.Weekday((int(c.FirstWeekday)+i)%7)))
	}

	var row []Month
	for m := time.January; m <= time.December; m++ {
		row = append(row, c.Month(year, m))
		if len(row) == columns {
			y.Rows = append(y.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		y.Rows = append(y.Rows, row)
	}
	return y
}

// FormatYear renders the year as a table of month tables.
func (c *Calendar) FormatYear(year, columns int) (template.HTML, error) {
	var buf bytes.Buffer
	if err := yearTemplate.Execute(&buf, c.Year(year, columns)); err != nil {
		return "", fmt.Errorf("render calendar %d: %w", year, err)
	}
	return template.HTML(buf.String()), nil
}

func weekdayAbbr(d time.Weekday) string {
	return d.String()[:3]
}

func columnsOf(rows [][]Month) int {
	if len(rows) == 0 {
		return 0
	}
	return len(rows[0])
}

var yearTemplate = template.Must(template.New("year").Funcs(template.FuncMap{
	"columns": columnsOf,
	"lower":   strings.ToLower,
}).Parse(`<table class="year">
<tr><th colspan="{{columns .Rows}}" class="year">{{.Year}}</th></tr>
{{- range .Rows}}
<tr>
{{- range .}}<td>
<table class="month">
<tr><th colspan="7" class="month">{{.Name}}</th></tr>
<tr>{{range $.Weekdays}}<th class="{{lower .}}">{{.}}</th>{{end}}</tr>
{{- range .Weeks}}
<tr>{{range .}}{{if not .InMonth}}<td class="noday">&nbsp;</td>{{else if .Marked}}<td class="{{.Class}}"><a href="{{.Link}}">{{.Date.Day}}</a></td>{{else}}<td class="{{.Class}}">{{.Date.Day}}</td>{{end}}{{end}}</tr>
{{- end}}
</table>
</td>{{end}}
</tr>
{{- end}}
</table>`))
