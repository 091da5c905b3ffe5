package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/selection"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command for inspecting a tree interactively.
func (c *CLI) browseCommand() *cobra.Command {
	var opts layout.Options

	cmd := &cobra.Command{
		Use:   "browse [source]",
		Short: "Browse a family tree layout interactively",
		Long: `Load a family tree and list every person with their level, column and
position. Press enter on a person to highlight their recorded ancestors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.ColumnWidth, "column-width", 0, "horizontal spacing between columns (default 100)")
	cmd.Flags().Float64Var(&opts.RowHeight, "row-height", 0, "vertical spacing between levels (default 100)")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, args []string, opts layout.Options) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	spec, err := resolveSource(args, cfg)
	if err != nil {
		return err
	}
	mergeLayoutOptions(&opts, cfg.Layout)

	snap, err := c.loadSnapshot(ctx, spec, cfg)
	if err != nil {
		return err
	}
	l, err := pipeline.NewRunner(nil, nil, c.Logger).Layout(ctx, snap, pipeline.Options{Layout: opts})
	if err != nil {
		return err
	}
	if len(l.Nodes) == 0 {
		printInfo("Tree is empty")
		return nil
	}

	p := tea.NewProgram(NewTreeBrowserModel(l), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// =============================================================================
// TreeBrowserModel - Interactive layout browser
// =============================================================================

// TreeBrowserModel is the bubbletea model listing the nodes of a layout.
// Rows are ordered top generation first, then by column.
type TreeBrowserModel struct {
	Layout    *layout.Layout
	Rows      []layout.Node
	Cursor    int
	Height    int
	Offset    int
	Selection selection.Path
}

// NewTreeBrowserModel creates a browser over l's nodes.
func NewTreeBrowserModel(l *layout.Layout) TreeBrowserModel {
	rows := slices.Clone(l.Nodes)
	slices.SortStableFunc(rows, func(a, b layout.Node) int {
		if c := cmp.Compare(b.Level, a.Level); c != 0 {
			return c
		}
		return cmp.Compare(a.ColumnIndex, b.ColumnIndex)
	})
	return TreeBrowserModel{
		Layout: l,
		Rows:   rows,
		Height: 15,
	}
}

func (m TreeBrowserModel) Init() tea.Cmd {
	return nil
}

func (m TreeBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Selection.Empty() {
				return m, tea.Quit
			}
			m.Selection = selection.Path{}
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Rows) == 0 {
				return m, nil
			}
			path, err := pipeline.Highlight(m.Layout, m.Rows[m.Cursor].ID)
			if err == nil {
				m.Selection = path
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m TreeBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Family Tree"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ ancestors  esc clear  q quit"))
	b.WriteString("\n\n")

	nodes := m.Rows
	end := min(m.Offset+m.Height, len(nodes))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		pos, _ := m.Layout.Position(n.ID)
		rows = append(rows, []string{
			cursor,
			n.ID,
			n.Name,
			strconv.Itoa(n.Level),
			strconv.Itoa(n.ColumnIndex),
			fmtCoord(pos.X),
			fmtCoord(pos.Y),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Level", "Column", "X", "Y").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(nodes) {
				return lipgloss.NewStyle()
			}
			id := nodes[idx].ID
			switch {
			case id == m.Selection.Selected:
				return lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
			case m.Selection.HasNode(id):
				return lipgloss.NewStyle().Foreground(colorYellow)
			case idx == m.Cursor:
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(nodes))))
	if !m.Selection.Empty() {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d ancestors of %s",
			len(m.Selection.Nodes)-1, m.Selection.Selected)))
	}

	return b.String()
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
