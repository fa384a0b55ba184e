package ui

import (
	"fmt"
	"strings"
	"time"

	"todo-board/internal/model"
)

// DatePicker is a month calendar with a day cursor.
type DatePicker struct {
	open   bool
	cursor time.Time
	today  time.Time
}

// Open shows the picker on deadline, or on today when deadline is empty or
// unparsable.
func (p *DatePicker) Open(deadline string, now time.Time) {
	p.today = dateOnly(now)
	p.cursor = p.today
	if t, err := model.ParseDeadline(deadline, now.Location()); err == nil {
		p.cursor = t
	}
	p.open = true
}

func (p *DatePicker) Close() {
	p.open = false
}

func (p DatePicker) IsOpen() bool {
	return p.open
}

// Move shifts the cursor by n days.
func (p *DatePicker) Move(n int) {
	p.cursor = p.cursor.AddDate(0, 0, n)
}

// MoveMonths shifts the cursor by n months, clamping to the last day of the
// target month.
func (p *DatePicker) MoveMonths(n int) {
	first := time.Date(p.cursor.Year(), p.cursor.Month(), 1, 0, 0, 0, 0, p.cursor.Location()).AddDate(0, n, 0)
	day := p.cursor.Day()
	if last := daysIn(first); day > last {
		day = last
	}
	p.cursor = first.AddDate(0, 0, day-1)
}

// Value is the cursor date in canonical form.
func (p DatePicker) Value() string {
	return p.cursor.Format(model.DateLayout)
}

func (p DatePicker) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(p.cursor.Format("January 2006")))
	b.WriteString("\n")
	for _, wd := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		b.WriteString(pickerDayStyle.Render(wd))
	}
	b.WriteString("\n")

	first := time.Date(p.cursor.Year(), p.cursor.Month(), 1, 0, 0, 0, 0, p.cursor.Location())
	offset := int(first.Weekday())
	b.WriteString(strings.Repeat(pickerDayStyle.Render(""), offset))
	for day := 1; day <= daysIn(first); day++ {
		d := first.AddDate(0, 0, day-1)
		style := pickerDayStyle
		switch {
		case d.Equal(dateOnly(p.cursor)):
			style = pickerCursorStyle
		case d.Equal(p.today):
			style = pickerTodayStyle
		}
		b.WriteString(style.Render(fmt.Sprint(day)))
		if (offset+day)%7 == 0 && day != daysIn(first) {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("←/→ day  ↑/↓ week  pgup/pgdn month  t today\nenter pick  backspace clear  esc close"))
	return b.String()
}

func daysIn(month time.Time) int {
	return time.Date(month.Year(), month.Month()+1, 0, 0, 0, 0, 0, month.Location()).Day()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
