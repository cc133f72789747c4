package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command, an interactive layer browser.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		plain bool
		flags layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "inspect [graph.json|layout.json]",
		Short: "Browse the layers of a layout",
		Long: `Browse the layers of a layout interactively.

←/→ switch layers, ↑/↓ select a node, q quits. A graph.json is laid out
first using the layout flags. With --plain, every layer is printed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.opts.Formats = []string{pipeline.FormatJSON}
			opts, err := flags.resolve(loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			l, err := c.loadLayout(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if plain {
				fmt.Fprint(stdout, renderAllLayers(l))
				return nil
			}
			_, err = tea.NewProgram(NewInspectModel(l), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print all layers instead of starting the browser")
	flags.register(cmd)

	return cmd
}

// loadLayout reads a layout file, or lays out a graph file.
func (c *CLI) loadLayout(ctx context.Context, input string, opts pipeline.Options) (graph.Layout, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return graph.Layout{}, lkerrors.New(lkerrors.ErrCodeFileNotFound, "file not found: %s", input)
		}
		return graph.Layout{}, err
	}
	if l, err := graph.UnmarshalLayout(data); err == nil {
		return l, nil
	}
	g, err := graph.UnmarshalGraph(data)
	if err != nil {
		return graph.Layout{}, lkerrors.Wrap(lkerrors.ErrCodeInvalidFormat, err, "%s is neither a graph nor a layout", input)
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return graph.Layout{}, err
	}
	defer runner.Close()
	result, err := executeWithSpinner(ctx, runner, g, opts, "Computing layout")
	if err != nil {
		return graph.Layout{}, err
	}
	return result.Layout, nil
}

// =============================================================================
// InspectModel - Interactive layer browser
// =============================================================================

// InspectModel is the bubbletea model for browsing a layout layer by layer.
type InspectModel struct {
	Layout graph.Layout
	Layer  int
	Cursor int
	Height int
	Offset int

	nodes map[string]graph.LayoutNode
}

// NewInspectModel creates a model positioned on the first node of the first
// layer.
func NewInspectModel(l graph.Layout) InspectModel {
	nodes := make(map[string]graph.LayoutNode, len(l.Nodes))
	for _, n := range l.Nodes {
		nodes[n.ID] = n
	}
	return InspectModel{
		Layout: l,
		Height: 15,
		nodes:  nodes,
	}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Layer > 0 {
				m.setLayer(m.Layer - 1)
			}
		case "right", "l":
			if m.Layer < len(m.Layout.Layers)-1 {
				m.setLayer(m.Layer + 1)
			}
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.current())-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 12
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m *InspectModel) setLayer(i int) {
	m.Layer = i
	m.Cursor = 0
	m.Offset = 0
}

func (m InspectModel) current() []string {
	if m.Layer >= len(m.Layout.Layers) {
		return nil
	}
	return m.Layout.Layers[m.Layer]
}

// Selected returns the node under the cursor.
func (m InspectModel) Selected() (graph.LayoutNode, bool) {
	ids := m.current()
	if m.Cursor >= len(ids) {
		return graph.LayoutNode{}, false
	}
	n, ok := m.nodes[ids[m.Cursor]]
	return n, ok
}

func (m InspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Layer %d/%d", m.Layer+1, len(m.Layout.Layers))))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s · %d crossings", m.Layout.Layering, m.Layout.Crossings)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ layer  ↑/↓ node  q quit"))
	b.WriteString("\n\n")

	ids := m.current()
	end := min(m.Offset+m.Height, len(ids))
	b.WriteString(m.layerTable(ids[m.Offset:end], m.Offset))
	b.WriteString("\n")

	if n, ok := m.Selected(); ok {
		b.WriteString("\n")
		b.WriteString(listSelectedStyle.Render(n.Label))
		b.WriteString("\n")
		in, out := m.neighbors(n.ID)
		b.WriteString(fmt.Sprintf("  %s %s\n", StyleDim.Render("in: "), joinOrDash(in)))
		b.WriteString(fmt.Sprintf("  %s %s\n", StyleDim.Render("out:"), joinOrDash(out)))
	} else {
		b.WriteString(listDimStyle.Render("  (layer only holds edge bends)"))
		b.WriteString("\n")
	}
	return b.String()
}

// layerTable renders the given node IDs; first is the in-layer index of
// the first one.
func (m InspectModel) layerTable(ids []string, first int) string {
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		n := m.nodes[id]
		rows = append(rows, []string{
			fmt.Sprint(n.Index), n.Label, n.Kind,
			fmt.Sprintf("%.1f", n.X), fmt.Sprintf("%.1f", n.Y),
			fmt.Sprintf("%.0f×%.0f", n.Width, n.Height),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Node", "Kind", "X", "Y", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(ids) {
				return lipgloss.NewStyle()
			}
			if first+row == m.Cursor {
				return listSelectedStyle
			}
			if m.nodes[ids[row]].Kind == graph.KindLabel {
				return StyleLabel
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// neighbors returns the labels of the nodes with edges into and out of id.
func (m InspectModel) neighbors(id string) (in, out []string) {
	for _, e := range m.Layout.Edges {
		switch id {
		case e.To:
			in = append(in, m.nodes[e.From].Label)
		case e.From:
			out = append(out, m.nodes[e.To].Label)
		}
	}
	return in, out
}

// renderAllLayers prints every layer as a table, for --plain.
func renderAllLayers(l graph.Layout) string {
	m := NewInspectModel(l)
	m.Cursor = -1
	var b strings.Builder
	for i, ids := range l.Layers {
		b.WriteString(StyleTitle.Render(fmt.Sprintf("Layer %d", i)))
		b.WriteString("\n")
		b.WriteString(m.layerTable(ids, 0))
		b.WriteString("\n")
	}
	return b.String()
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "—"
	}
	return strings.Join(s, ", ")
}
