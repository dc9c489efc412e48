package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/strata/pkg/graph"
)

// errPickAborted is returned when the user leaves the picker without
// confirming.
var errPickAborted = errors.New("root selection aborted")

var (
	listCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listCheckStyle  = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// rootPicker - Interactive root selection
// =============================================================================

type pickItem struct {
	label  string
	degree int
}

// rootPicker is the bubbletea model for choosing roots. Vertices are listed
// by descending degree so hubs come first.
type rootPicker struct {
	items    []pickItem
	selected map[int]bool
	cursor   int
	offset   int
	height   int

	confirmed bool
}

func newRootPicker(g *graph.Graph, preselected []string) rootPicker {
	items := make([]pickItem, 0, g.VertexCount())
	for _, id := range g.Vertices() {
		items = append(items, pickItem{label: g.Label(id), degree: len(g.Links(id))})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].degree > items[j].degree })

	selected := make(map[int]bool, len(preselected))
	for _, label := range preselected {
		for i, it := range items {
			if it.label == label {
				selected[i] = true
			}
		}
	}
	return rootPicker{items: items, selected: selected, height: 15}
}

func (m rootPicker) Init() tea.Cmd { return nil }

func (m rootPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case " ", "x":
			if len(m.items) > 0 {
				m.selected[m.cursor] = !m.selected[m.cursor]
			}
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m rootPicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Roots"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.items))
	for i := m.offset; i < end; i++ {
		it := m.items[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		check := listDimStyle.Render("[ ]")
		if m.selected[i] {
			check = listCheckStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %-30s", check, it.label)
		degree := listDimStyle.Render(fmt.Sprintf("%d links", it.degree))

		style := listNormalStyle
		if i == m.cursor {
			style = listCursorStyle
		}
		b.WriteString(cursor + style.Render(line) + " " + degree + "\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %d selected", m.cursor+1, len(m.items), len(m.selectedLabels()))))
	return b.String()
}

// selectedLabels returns the chosen labels in list order.
func (m rootPicker) selectedLabels() []string {
	var out []string
	for i, it := range m.items {
		if m.selected[i] {
			out = append(out, it.label)
		}
	}
	return out
}

// pickRoots runs the picker on out and returns the chosen root labels. An
// empty selection is valid and means the document's roots are used.
func pickRoots(ctx context.Context, g *graph.Graph, preselected []string, in io.Reader, out io.Writer) ([]string, error) {
	p := tea.NewProgram(newRootPicker(g, preselected),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("run picker: %w", err)
	}
	m := final.(rootPicker)
	if !m.confirmed {
		return nil, errPickAborted
	}
	return m.selectedLabels(), nil
}
