package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nunet/pkg/design"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listInvalidStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// maxNotices is how many recent notifications the browser shows.
const maxNotices = 5

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the design interactively, with undo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, d, err := c.loadDesign(cmd.Context())
			if err != nil {
				return err
			}
			m := newBrowseModel(snap.Name, d, func() error { return c.saveDesign(snap, d) })
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if bm, ok := final.(browseModel); ok && bm.dirty {
				printWarning("Unsaved changes to %s were discarded", c.designPath)
			}
			return nil
		},
	}
}

// =============================================================================
// browseModel - Interactive design browser
// =============================================================================

// browseModel lists the neurons of a design. The selected neuron's
// synapses are shown below the list. Neurons and synapses can be removed,
// and every change can be undone until the browser is closed.
type browseModel struct {
	name     string
	designer *design.Designer
	save     func() error

	neurons []design.Neuron
	invalid map[design.Position]string
	cursor  int
	offset  int
	height  int
	synapse int // index into the selected neuron's synapses, -1 for none

	dirty  bool
	status string
}

func newBrowseModel(name string, d *design.Designer, save func() error) browseModel {
	m := browseModel{name: name, designer: d, save: save, height: 12, synapse: -1}
	m.refresh()
	return m
}

// refresh re-reads the store after a change and clamps the cursor.
func (m *browseModel) refresh() {
	s := m.designer.Store()
	m.neurons = s.Neurons()
	m.invalid = make(map[design.Position]string)
	for _, v := range design.Check(s) {
		m.invalid[v.Position] = v.Reason
	}
	if m.cursor >= len(m.neurons) {
		m.cursor = max(len(m.neurons)-1, 0)
	}
	if m.synapse >= len(m.selectedSynapses()) {
		m.synapse = len(m.selectedSynapses()) - 1
	}
}

func (m browseModel) selected() (design.Neuron, bool) {
	if m.cursor < len(m.neurons) {
		return m.neurons[m.cursor], true
	}
	return design.Neuron{}, false
}

func (m browseModel) selectedSynapses() []design.Synapse {
	n, ok := m.selected()
	if !ok {
		return nil
	}
	return m.designer.Store().Incident(n.Position)
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.synapse = -1
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.neurons)-1 {
				m.cursor++
				m.synapse = -1
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "tab":
			if n := len(m.selectedSynapses()); n > 0 {
				m.synapse = (m.synapse + 1) % n
			}
		case "x":
			m.removeNeuron()
		case "X":
			m.removeSynapse()
		case "u":
			if m.designer.Undo() {
				m.dirty = true
				m.status = "undone"
			} else {
				m.status = "nothing to undo"
			}
			m.refresh()
		case "s":
			if err := m.save(); err != nil {
				m.designer.Report(err)
			} else {
				m.dirty = false
				m.status = "saved"
			}
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-16, 3)
	}
	return m, nil
}

func (m *browseModel) removeNeuron() {
	n, ok := m.selected()
	if !ok {
		return
	}
	if m.designer.Report(m.designer.RemoveNeuron(n.Position)) == nil {
		m.dirty = true
		m.status = "removed " + n.Position.String()
	}
	m.refresh()
}

func (m *browseModel) removeSynapse() {
	syns := m.selectedSynapses()
	if m.synapse < 0 || m.synapse >= len(syns) {
		m.status = "select a synapse with tab first"
		return
	}
	sy := syns[m.synapse]
	if m.designer.Report(m.designer.RemoveSynapse(sy.ID)) == nil {
		m.dirty = true
		m.status = fmt.Sprintf("removed synapse %s %s %s", sy.Start, iconArrow, sy.End)
	}
	m.refresh()
}

func (m browseModel) View() string {
	var b strings.Builder

	title := m.name
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ neuron  tab synapse  x remove neuron  X remove synapse  u undo  s save  q quit"))
	b.WriteString("\n\n")

	if len(m.neurons) == 0 {
		b.WriteString(listDimStyle.Render("  (empty design)"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.height, len(m.neurons))
	for i := m.offset; i < end; i++ {
		n := m.neurons[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-10s %-7s %-12s %s", cursor, n.Position, n.Kind, n.Activation, n.Name)
		reason, bad := m.invalid[n.Position]
		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case bad:
			b.WriteString(listInvalidStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		if bad {
			b.WriteString(listDimStyle.Render("  " + reason))
		}
		b.WriteString("\n")
	}

	if n, ok := m.selected(); ok {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("synapses of %s", n.Position)))
		b.WriteString("\n")
		for i, sy := range m.selectedSynapses() {
			marker := "  "
			if i == m.synapse {
				marker = "▸ "
			}
			dir := "out"
			if sy.End == n.Position {
				dir = "in "
			}
			line := fmt.Sprintf("%s%s %s  [%g, %g] / %g  bias=%t", marker, dir, sy.Other(n.Position),
				sy.Init.Min, sy.Init.Max, sy.Init.Interval, sy.Bias)
			if i == m.synapse {
				b.WriteString(listSelectedStyle.Render(line))
			} else {
				b.WriteString(listNormalStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	if notices := m.designer.Notifications().Recent(maxNotices); len(notices) > 0 {
		b.WriteString("\n")
		for _, n := range notices {
			b.WriteString(StyleError.Render(iconError + " " + n.Message))
			b.WriteString("\n")
		}
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StyleSuccess.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.cursor+1, len(m.neurons)), len(m.neurons))))
	return b.String()
}
