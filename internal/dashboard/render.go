package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/kyou/internal/calendar"
)

const (
	timeLayout  = "2006-01-02 15:04"
	placeholder = "―"
	minWidth    = 40
)

// Card titles, in render order.
const (
	TitleToday   = "Today"
	TitleHoliday = "Holidays"
	TitleWeather = "Weather"
	TitleGarbage = "Garbage collection"
	TitleNews    = "News"
)

type Options struct {
	Width    int
	Selected int // highlighted news item; -1 for none
}

// Render lays the page out as five cards: date, holidays, weather, garbage
// and news.
func Render(p *Page, opts Options) string {
	width := opts.Width
	if width < minWidth {
		width = 80
	}
	inner := width - cardStyle.GetHorizontalFrameSize()

	cards := []string{
		card(TitleToday, renderToday(p), width),
		card(TitleHoliday, renderHoliday(p), width),
		card(weatherTitle(p), renderWeather(p, inner), width),
		card(TitleGarbage, renderGarbage(p), width),
		card(TitleNews, renderNews(p, opts.Selected, inner), width),
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func card(title, body string, width int) string {
	content := cardTitleStyle.Render(title) + "\n" + body
	return cardStyle.Width(width - 2).Render(content)
}

func alert(err error) string {
	return errorStyle.Render("Error: ") + bodyStyle.Render(err.Error())
}

func renderToday(p *Page) string {
	return emphasisStyle.Render(formatDate(p.Today)) + "\n" +
		dimStyle.Render("Updated "+p.RenderedAt.Format(timeLayout))
}

func renderHoliday(p *Page) string {
	sec := p.Holiday
	if sec.Err != nil {
		return alert(sec.Err)
	}

	var lines []string
	if sec.Status.IsHoliday {
		lines = append(lines, emphasisStyle.Render("Today is a holiday: "+sec.Status.TodayName))
	} else {
		lines = append(lines, bodyStyle.Render("Today is not a holiday."))
	}

	if next := sec.Status.Next; next != nil {
		days := daysBetween(p.Today, next.Date)
		lines = append(lines, bodyStyle.Render(fmt.Sprintf("Next holiday: %s %s (in %d %s)",
			formatDate(next.Date), next.Name, days, plural(days, "day", "days"))))
	} else {
		lines = append(lines, dimStyle.Render("No upcoming holidays found."))
	}
	return strings.Join(lines, "\n")
}

func weatherTitle(p *Page) string {
	if p.Weather.Area == "" {
		return TitleWeather
	}
	return TitleWeather + " · " + p.Weather.Area
}

func renderWeather(p *Page, width int) string {
	sec := p.Weather
	if sec.Err != nil {
		return alert(sec.Err)
	}
	s := sec.Summary

	var lines []string
	if sec.Warning != nil {
		lines = append(lines, warnStyle.Render("Warning: "+sec.Warning.Error()+"; showing partial data."))
	}

	if s.Weather != "" {
		line := emphasisStyle.Render(s.Weather)
		if !s.WeatherTime.IsZero() {
			line += dimStyle.Render(" (" + s.WeatherTime.Format(timeLayout) + ")")
		}
		lines = append(lines, line)
	} else {
		lines = append(lines, dimStyle.Render("No weather forecast available for today."))
	}

	temps := fmt.Sprintf("Min %s°C / Max %s°C", FormatTemp(s.MinTemp), FormatTemp(s.MaxTemp))
	if !s.TempDate.IsZero() {
		temps += dimStyle.Render(" (" + formatDate(s.TempDate) + ")")
	}
	lines = append(lines, bodyStyle.Render(temps))

	lines = append(lines, "", cardTitleStyle.Render("Chance of precipitation"))
	if len(s.Pops) == 0 {
		lines = append(lines, dimStyle.Render("No precipitation forecast for the rest of today."))
	}
	for _, pop := range s.Pops {
		lines = append(lines, bodyStyle.Render(fmt.Sprintf("  %s  %3s%%", pop.Label, pop.Percent)))
	}

	if s.Overview != "" {
		lines = append(lines, "", bodyStyle.Width(width).Render(s.Overview))
	}
	if !s.ReportTime.IsZero() {
		lines = append(lines, "", dimStyle.Render("Reported "+s.ReportTime.Format(timeLayout)))
	}
	return strings.Join(lines, "\n")
}

func renderGarbage(p *Page) string {
	sec := p.Garbage
	var lines []string
	if sec.District != "" {
		lines = append(lines, dimStyle.Render(sec.District))
	}
	lines = append(lines,
		bodyStyle.Render(fmt.Sprintf("Today (%s): ", sec.Today.Weekday.String()[:3]))+emphasisStyle.Render(sec.Today.Collection),
		bodyStyle.Render(fmt.Sprintf("Tomorrow (%s): %s", sec.Tomorrow.Weekday.String()[:3], sec.Tomorrow.Collection)),
	)
	if sec.CalendarURL != "" {
		lines = append(lines, linkStyle.Render("Calendar: "+sec.CalendarURL))
	}
	return strings.Join(lines, "\n")
}

func renderNews(p *Page, selected, width int) string {
	sec := p.News
	if sec.Err != nil {
		return alert(sec.Err)
	}
	if len(sec.Items) == 0 {
		return dimStyle.Render("No news items.")
	}

	var b strings.Builder
	for i, it := range sec.Items {
		title := it.Title
		if title == "" {
			title = "Untitled"
		}
		line := fmt.Sprintf("%d. %s", i+1, truncate(title, width-4))
		if i == selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(bodyStyle.Render("  " + line))
		}
		b.WriteString("\n")
		meta := it.PubDate
		if it.Link != "" {
			meta = strings.TrimSpace(meta + "  " + it.Link)
		}
		if meta != "" {
			b.WriteString(linkStyle.Render("   " + truncate(meta, width-3)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTemp formats a temperature with at most one decimal, dropping a
// trailing zero. Absent values render as a placeholder.
func FormatTemp(v *float64) string {
	if v == nil {
		return placeholder
	}
	s := strconv.FormatFloat(*v, 'f', 1, 64)
	s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		s = "0"
	}
	return s
}

func formatDate(d calendar.Date) string {
	return fmt.Sprintf("%s (%s)", d.String(), d.Weekday().String()[:3])
}

func daysBetween(from, to calendar.Date) int {
	return int(to.Time(time.UTC).Sub(from.Time(time.UTC)).Hours() / 24)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
