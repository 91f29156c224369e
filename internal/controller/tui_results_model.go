package controller

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// resultDelegate renders one result per line in the results list.
type resultDelegate struct {
	offset int
}

func (d resultDelegate) Height() int  { return 1 }
func (d resultDelegate) Spacing() int { return 0 }
func (d resultDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d resultDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	result, ok := item.(resultItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()
	unitWidth := m.Width() - 20 // round and status columns

	roundStyle, statusStyle, unitStyle, displayUnit := d.getStylesAndUnit(result, isSelected, unitWidth)

	line := fmt.Sprintf("%s  %s  %s",
		roundStyle.Render(fmt.Sprintf("%-4d", result.round)),
		statusStyle.Render(fmt.Sprintf("%-8s", result.status)),
		unitStyle.Render(displayUnit),
	)
	_, _ = fmt.Fprint(w, line)
}

func (d resultDelegate) getStylesAndUnit(result resultItem, isSelected bool, unitWidth int) (lipgloss.Style, lipgloss.Style, lipgloss.Style, string) {
	if isSelected {
		selected := lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")).
			Bold(true)

		return selected.Width(6).Align(lipgloss.Left),
			selected.Width(10).Align(lipgloss.Left),
			selected,
			animateScrollFile(result.unit, unitWidth, d.offset)
	}

	statusColorMap := map[string]lipgloss.Color{
		statusChanged: lipgloss.Color("2"), // Green
		statusPartial: lipgloss.Color("3"), // Yellow
		statusFailed:  lipgloss.Color("1"), // Red
	}

	statusColor, ok := statusColorMap[result.status]
	if !ok {
		statusColor = lipgloss.Color("8")
	}

	return lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true).
			Width(6).
			Align(lipgloss.Left),
		lipgloss.NewStyle().
			Foreground(statusColor).
			Bold(true).
			Width(10).
			Align(lipgloss.Left),
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")),
		truncateFile(result.unit, unitWidth)
}

// resultsModel follows a running rewrite and then lets the user browse the
// changed units and their diffs.
type resultsModel struct {
	mode             StartMode
	width            int
	height           int
	spinner          spinner.Model
	rounds           int
	processed        int
	rendered         bool
	finished         bool
	runID            string
	err              error
	results          []resultItem
	resultsList      list.Model
	delegate         resultDelegate
	animOffset       int
	lastSelected     int
	showDiff         bool
	selectedDiff     string
	selectedDiffPath string
}

func newResultsModel(mode StartMode) resultsModel {
	delegate := resultDelegate{}
	resultsList := list.New([]list.Item{}, delegate, 80, 20)
	resultsList.SetShowPagination(false)
	resultsList.SetShowFilter(true)
	resultsList.SetShowHelp(false)
	resultsList.SetShowTitle(false)
	resultsList.SetShowStatusBar(false)
	resultsList.FilterInput.Placeholder = "Filter results…"

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return resultsModel{
		mode:         mode,
		spinner:      spin,
		resultsList:  resultsList,
		delegate:     delegate,
		lastSelected: -1,
	}
}

func (m resultsModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
			return tickMsg(t)
		}),
	)
}

func (m resultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)

	case tea.KeyMsg:
		m, cmd = m.handleKeyMsg(msg)

	case tea.MouseMsg:
		m, cmd = m.handleMouseMsg(msg)

	case tickMsg:
		return m.handleTickMsg(msg)

	case spinner.TickMsg:
		if !m.finished {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	case roundMsg:
		m = m.handleRound(msg)

	case runMsg:
		m = m.handleRun(msg)
	}

	return m, cmd
}

func (m resultsModel) View() string {
	if !m.rendered {
		return "Initializing…\n"
	}

	if m.finished {
		return m.viewResults()
	}

	return m.viewProgress()
}

func (m resultsModel) viewProgress() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	summary := summaryStyle().Render(fmt.Sprintf(
		"%s Round: %s  •  Units: %s  •  Changed: %s",
		m.spinner.View(),
		accentStyle.Render(fmt.Sprintf("%d", m.rounds)),
		accentStyle.Render(fmt.Sprintf("%d", m.processed)),
		accentStyle.Render(fmt.Sprintf("%d", m.countStatus(statusChanged)+m.countStatus(statusPartial))),
	))

	lines := make([]string, 0, 5)

	start := max(len(m.results)-5, 0)
	for _, result := range m.results[start:] {
		lines = append(lines, fmt.Sprintf("%-8s %s", result.status, truncateFile(result.unit, m.width-16)))
	}

	if len(lines) == 0 {
		lines = append(lines, "no changes yet")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("6")).
		Padding(0, 1).
		Margin(1, 1, 1, 0).
		Width(max(m.width-4, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle().Render("gorewrite"),
		summary,
		box,
		footerStyle(m.width).Render("Press q to quit"),
	)
}

func (m resultsModel) viewResults() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	title := "gorewrite results"
	if m.runID != "" {
		title = fmt.Sprintf("gorewrite results • %s", m.runID)
	}

	summary := summaryStyle().Render(fmt.Sprintf(
		"Units: %s  •  Changed: %s  •  Partial: %s  •  Failed: %s",
		accentStyle.Render(fmt.Sprintf("%d", m.processed)),
		accentStyle.Render(fmt.Sprintf("%d", m.countStatus(statusChanged))),
		accentStyle.Render(fmt.Sprintf("%d", m.countStatus(statusPartial))),
		accentStyle.Render(fmt.Sprintf("%d", m.countStatus(statusFailed))),
	))

	body := m.renderResultsBox(lipgloss.Color("6"))
	if m.err != nil {
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 2).Render("error: " + m.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle().Render(title),
		summary,
		body,
		footerStyle(m.width).Render("↑/k up • ↓/j down • / filter • enter/space/click diff • q quit"),
	)
}

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2)
}

func summaryStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2)
}

func footerStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Width(width)
}

func (m resultsModel) renderResultsBox(accentColor lipgloss.Color) string {
	if len(m.results) == 0 {
		return lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("8")).Render("No unit changed")
	}

	listWidth := m.width - 4
	diffBoxHeight := m.diffBoxHeight()

	listHeight := m.height - 9 - diffBoxHeight
	if listHeight < 5 {
		listHeight = 5
	}

	m.resultsList.SetHeight(listHeight)
	m.resultsList.SetWidth(listWidth)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("8")).
		Width(listWidth)

	headers := headerStyle.Render(fmt.Sprintf("%-6s  %-8s  %s", "Round", "Status", "Unit"))

	resultsStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Margin(0, 1, 0, 0).
		Padding(0, 1)

	resultsBox := resultsStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			headers,
			m.resultsList.View(),
		),
	)

	diffBox, _ := m.renderDiffBox(accentColor, listWidth)
	if diffBox == "" {
		return resultsBox
	}

	return lipgloss.JoinVertical(lipgloss.Left, resultsBox, diffBox)
}

func (m resultsModel) countStatus(status string) int {
	count := 0

	for _, result := range m.results {
		if result.status == status {
			count++
		}
	}

	return count
}

func animateScrollFile(text string, width int, offset int) string {
	if width <= 0 {
		return ""
	}

	if lipgloss.Width(text) <= width {
		return text
	}

	gap := "   "

	// ticks before scrolling starts
	pause := 5

	if offset < pause {
		return truncateFile(text, width)
	}

	runes := []rune(text + gap)
	n := len(runes)
	start := (offset - pause) % n

	res := make([]rune, 0, width)
	for i := range width {
		res = append(res, runes[(start+i)%n])
	}

	return string(res)
}

func truncateFile(text string, width int) string {
	if width <= 0 {
		return ""
	}

	if lipgloss.Width(text) <= width {
		return text
	}

	ellipsis := "…"
	if width <= 1 {
		return ellipsis
	}

	maxWidth := width - lipgloss.Width(ellipsis)
	currentWidth := 0

	result := make([]rune, 0, len(text))
	for _, r := range text {
		rWidth := lipgloss.Width(string(r))
		if currentWidth+rWidth > maxWidth {
			break
		}

		result = append(result, r)
		currentWidth += rWidth
	}

	return string(result) + ellipsis
}

func (m resultsModel) handleRound(msg roundMsg) resultsModel {
	m.rounds = msg.round
	m.processed += msg.processed
	m.rendered = true
	m.results = append(m.results, msg.items...)
	m.syncItems()

	return m
}

func (m resultsModel) handleRun(msg runMsg) resultsModel {
	m.finished = true
	m.rendered = true
	m.err = msg.err
	m.runID = msg.run.ID

	// a stored run arrives without rounds
	if m.mode == ModeView || (m.processed == 0 && len(msg.run.Reports) > 0) {
		m.processed = len(msg.run.Reports)
		m.results = itemsFromReports(msg.run.Reports)
		m.syncItems()
	}

	return m
}

func (m *resultsModel) syncItems() {
	items := make([]list.Item, 0, len(m.results))
	for _, r := range m.results {
		items = append(items, r)
	}

	m.resultsList.SetItems(items)
}

func (m resultsModel) handleKeyMsg(msg tea.KeyMsg) (resultsModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	default:
		if !m.finished {
			return m, nil
		}

		if msg.String() == "enter" || msg.String() == " " {
			m.toggleSelectedDiff()
			return m, nil
		}

		m.resultsList, cmd = m.resultsList.Update(msg)
		m.resetSelection()

		return m, cmd
	}
}

func (m resultsModel) handleMouseMsg(msg tea.MouseMsg) (resultsModel, tea.Cmd) {
	var cmd tea.Cmd

	if !m.finished {
		return m, nil
	}

	m.resultsList, cmd = m.resultsList.Update(msg)
	m.resetSelection()

	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease && m.resultsList.FilterState() != list.Filtering {
		m.toggleSelectedDiff()
	}

	return m, cmd
}

// resetSelection restarts the scroll animation and hides the diff when the
// selected row changed.
func (m *resultsModel) resetSelection() {
	if m.resultsList.Index() == m.lastSelected {
		return
	}

	m.lastSelected = m.resultsList.Index()
	m.animOffset = 0
	m.delegate.offset = 0
	m.resultsList.SetDelegate(m.delegate)
	m.showDiff = false
	m.selectedDiff = ""
	m.selectedDiffPath = ""
}

func (m *resultsModel) toggleSelectedDiff() {
	result, ok := m.resultsList.SelectedItem().(resultItem)
	if !ok {
		return
	}

	diff := strings.TrimSpace(result.diff)
	if diff == "" || (m.showDiff && m.selectedDiff == diff) {
		m.showDiff = false
		m.selectedDiff = ""
		m.selectedDiffPath = ""

		return
	}

	m.showDiff = true
	m.selectedDiff = diff
	m.selectedDiffPath = result.unit
}

func (m resultsModel) diffMaxLines() int {
	return min(max(m.height/3, 6), 20)
}

func (m resultsModel) diffBoxHeight() int {
	if !m.showDiff || m.selectedDiff == "" {
		return 0
	}

	lines := strings.Count(m.selectedDiff, "\n") + 1

	return min(lines, m.diffMaxLines()) + 3
}

func (m resultsModel) renderDiffBox(accentColor lipgloss.Color, width int) (string, int) {
	if !m.showDiff || m.selectedDiff == "" {
		return "", 0
	}

	lines := strings.Split(m.selectedDiff, "\n")
	maxLines := m.diffMaxLines()
	truncated := false

	if len(lines) > maxLines {
		lines = lines[:maxLines-1]
		truncated = true
	}

	contentWidth := max(width-4, 10)

	bodyLines := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		bodyLines = append(bodyLines, renderDiffLine(line, contentWidth))
	}

	if truncated {
		bodyLines = append(bodyLines, "…")
	}

	headerText := "Diff"
	if m.selectedDiffPath != "" {
		headerText = fmt.Sprintf("Diff • %s", m.selectedDiffPath)
	}

	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Render(truncateFile(headerText, contentWidth))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Margin(0, 1, 0, 0).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinVertical(lipgloss.Left, bodyLines...)))

	return box, lipgloss.Height(box)
}

func renderDiffLine(line string, width int) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	switch {
	case strings.HasPrefix(line, "+++"):
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	case strings.HasPrefix(line, "---"):
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	case strings.HasPrefix(line, "@@"):
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	case strings.HasPrefix(line, "+"):
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case strings.HasPrefix(line, "-"):
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	case strings.TrimSpace(line) == "":
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	}

	return style.Render(truncateFile(line, width))
}

func (m resultsModel) handleWindowSize(msg tea.WindowSizeMsg) resultsModel {
	m.width = msg.Width
	m.height = msg.Height
	m.rendered = true

	return m
}

func (m resultsModel) handleTickMsg(_ tickMsg) (resultsModel, tea.Cmd) {
	if m.finished && m.resultsList.FilterState() != list.Filtering {
		m.animOffset++
		m.delegate.offset = m.animOffset
		m.resultsList.SetDelegate(m.delegate)
	}

	return m, tea.Tick(time.Millisecond*150, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
