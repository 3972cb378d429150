package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/kyou/internal/browser"
	"github.com/matheuskafuri/kyou/internal/cache"
	"github.com/matheuskafuri/kyou/internal/dashboard"
)

type mode int

const (
	modeNormal mode = iota
	modeHelp
)

// Source builds dashboard pages and owns the memo behind them.
type Source interface {
	Build(ctx context.Context) *dashboard.Page
	Memo() *cache.Memo
}

// openURL is swapped out in tests.
var openURL = browser.Open

type App struct {
	source      Source
	calendarURL string
	timeout     time.Duration
	onBuilt     func(*dashboard.Page)

	page    *dashboard.Page
	cursor  int
	scroll  int
	mode    mode
	loading bool
	err     error

	width  int
	height int

	spinner spinner.Model
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Source      Source
	CalendarURL string
	// Timeout bounds one page build.
	Timeout time.Duration
	// OnBuilt is called after every page build.
	OnBuilt func(*dashboard.Page)
}

func NewApp(opts RunOpts) *App {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &App{
		source:      opts.Source,
		calendarURL: opts.CalendarURL,
		timeout:     timeout,
		onBuilt:     opts.OnBuilt,
		spinner:     sp,
		loading:     true,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadPageCmd(), a.spinner.Tick)
}

func (a *App) loadPageCmd() tea.Cmd {
	source := a.source
	timeout := a.timeout
	onBuilt := a.onBuilt
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		page := source.Build(ctx)
		if onBuilt != nil {
			onBuilt(page)
		}
		return pageLoadedMsg{page: page}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := openURL(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case pageLoadedMsg:
		a.page = msg.page
		a.loading = false
		if n := a.newsCount(); a.cursor >= n {
			a.cursor = max(0, n-1)
		}
		return a, nil

	case openErrMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) newsCount() int {
	if a.page == nil {
		return 0
	}
	return len(a.page.News.Items)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.mode == modeHelp {
		switch msg.String() {
		case "?", "esc":
			a.mode = modeNormal
		case "q":
			return a, tea.Quit
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.loading {
			a.source.Memo().Expire()
			a.loading = true
			return a, tea.Batch(a.loadPageCmd(), a.spinner.Tick)
		}
		return a, nil
	case "j":
		if a.cursor < a.newsCount()-1 {
			a.cursor++
			a.followCursor()
		}
		return a, nil
	case "k":
		if a.cursor > 0 {
			a.cursor--
			a.followCursor()
		}
		return a, nil
	case "down":
		if a.page != nil {
			_, a.scroll = clipLines(a.renderBody(), a.scroll+1, a.bodyHeight())
		}
		return a, nil
	case "up":
		if a.scroll > 0 {
			a.scroll--
		}
		return a, nil
	case "o", "enter":
		if link, ok := a.page.Link(a.cursor); ok {
			return a, openBrowserCmd(link)
		}
		return a, nil
	case "g":
		if a.calendarURL != "" {
			return a, openBrowserCmd(a.calendarURL)
		}
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

// followCursor scrolls so the selected news item is on screen.
func (a *App) followCursor() {
	if a.page == nil {
		return
	}
	body := a.renderBody()
	line := lineOf(body, fmt.Sprintf("> %d.", a.cursor+1))
	if line < 0 {
		return
	}
	height := a.bodyHeight()
	switch {
	case line < a.scroll:
		a.scroll = line
	case line >= a.scroll+height-1:
		a.scroll = line - height + 2
	}
}

func (a *App) bodyHeight() int {
	return max(1, a.height-2) // header and status bar
}

func (a *App) renderBody() string {
	return dashboard.Render(a.page, dashboard.Options{Width: a.width, Selected: a.cursor})
}

func (a *App) withBottomBar(content string, hints string) string {
	bar := renderBottomBar(hints, a.width)
	lines := strings.Split(content, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  kyou")
	}

	if a.mode == modeHelp {
		return a.withBottomBar(a.renderHelp(), hintsHelp)
	}

	// Header
	headerLeft := headerStyle.Render("kyou")
	if a.loading {
		headerLeft += " " + a.spinner.View()
	}
	headerRight := headerDateStyle.Render(time.Now().Format("Mon Jan 2 15:04"))
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	var body string
	if a.page == nil {
		body = strings.Repeat("\n", a.bodyHeight()/3) + helpDimStyle.Render("  Loading today's dashboard...")
	} else {
		body = a.renderBody()
	}
	body, _ = clipLines(body, a.scroll, a.bodyHeight())

	var (
		lastUpdate   time.Time
		hits, misses = a.source.Memo().Stats()
	)
	if a.page != nil {
		lastUpdate = a.page.RenderedAt
	}
	status := renderStatusBar(lastUpdate, hits, misses, a.width, a.loading)

	// Error display
	if a.err != nil {
		status = errorLineStyle.Width(a.width).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("kyou")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k           Select news item\n" +
		"  ↑/↓           Scroll the dashboard\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open selected news item in browser\n" +
		"  g             Open garbage collection calendar\n" +
		"  r             Refresh (ignores cached data)\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c     Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
