package cli

import (
	"fmt"
	"time"

	coreapp "archcheck/internal/core/app"
	"archcheck/internal/ui/report/formats"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	issueList   list.Model
	root        string
	run         coreapp.Run
	hasRun      bool
	runErr      error
	showPassing bool
	lastUpdate  time.Time
}

type runMsg struct {
	run coreapp.Run
	err error
}

func initialModel(root string) model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Rule Results"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		issueList:  l,
		root:       root,
		lastUpdate: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.issueList.FilterState() != list.Filtering {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "p":
				m.showPassing = !m.showPassing
				m.issueList.SetItems(m.items())
				return m, nil
			}
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.issueList.SetSize(msg.Width-h, msg.Height-v-4)
	case runMsg:
		m.lastUpdate = time.Now()
		m.runErr = msg.err
		if msg.err == nil {
			m.run = msg.run
			m.hasRun = true
		}
		m.issueList.SetItems(m.items())
		return m, nil
	}

	var cmd tea.Cmd
	m.issueList, cmd = m.issueList.Update(msg)
	return m, cmd
}

// items lists one entry per violation, one per rule that could not be
// evaluated and, when toggled on, one per passing rule.
func (m model) items() []list.Item {
	items := []list.Item{}
	for _, o := range m.run.Outcomes {
		switch {
		case o.Err != nil:
			items = append(items, item{title: "Rule Error", desc: fmt.Sprintf("%s: %v", o.Rule.Description(), o.Err)})
		case !o.Result.Passed:
			for _, v := range o.Result.Violations {
				desc := formats.RelativePath(m.root, v.Path)
				if v.Detail != "" {
					desc += " (" + v.Detail + ")"
				}
				items = append(items, item{title: o.Rule.Description(), desc: desc})
			}
		case m.showPassing:
			items = append(items, item{title: "Passed", desc: o.Rule.Description()})
		}
	}
	return items
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last run: %s | %s", m.lastUpdate.Format("15:04:05"), m.root))

	var summary string
	switch {
	case m.runErr != nil:
		summary = warningStyle.Render("Run failed: " + m.runErr.Error())
	case !m.hasRun:
		summary = statusStyle.Render("Waiting for the first run...")
	case m.run.Passed():
		summary = successStyle.Render(fmt.Sprintf("All %d rules passed", len(m.run.Outcomes)))
	default:
		summary = failureStyle.Render(fmt.Sprintf("%d of %d rules failed", m.run.FailedCount(), len(m.run.Outcomes)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Architecture Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.issueList.View())
}
