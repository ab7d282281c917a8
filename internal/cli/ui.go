package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nunet/pkg/design"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// kindColors tints table rows by neuron kind.
var kindColors = map[design.Kind]lipgloss.Color{
	design.KindInput:  colorGreen,
	design.KindHidden: colorWhite,
	design.KindOutput: colorCyan,
}

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(output, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(output, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(output, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(output, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(output, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(output, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(output, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints design statistics on a single line.
func printStats(neurons, synapses int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d neurons", neurons),
		fmt.Sprintf("%d synapses", synapses),
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	b.WriteString(StyleDim.Render(" · ") + statusStyle.Render(status))
	fmt.Fprintln(output, b.String())
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(output, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Design Tables
// =============================================================================

// neuronRows formats the neurons of s, ordered by position.
func neuronRows(s *design.Store) [][]string {
	rows := make([][]string, 0, s.NeuronCount())
	for _, n := range s.Neurons() {
		in, out := fanInOut(s, n)
		rows = append(rows, []string{
			n.Position.String(),
			n.Kind.String(),
			string(n.Activation),
			formatConstant(n.Constant),
			n.Name,
			strconv.Itoa(in),
			strconv.Itoa(out),
		})
	}
	return rows
}

// fanInOut counts the synapses entering and leaving n.
func fanInOut(s *design.Store, n design.Neuron) (in, out int) {
	for _, sy := range s.Incident(n.Position) {
		if sy.End == n.Position {
			in++
		} else {
			out++
		}
	}
	return in, out
}

func formatConstant(c *float64) string {
	if c == nil {
		return "—"
	}
	return strconv.FormatFloat(*c, 'g', -1, 64)
}

// renderNeuronTable draws the neuron table. Rows are tinted by kind.
func renderNeuronTable(s *design.Store) string {
	neurons := s.Neurons()
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Position", "Kind", "Activation", "Constant", "Name", "In", "Out").
		Rows(neuronRows(s)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row < 0 || row >= len(neurons) {
				return styleHeader
			}
			return lipgloss.NewStyle().Foreground(kindColors[neurons[row].Kind]).Padding(0, 1)
		}).
		Render()
}

// renderSynapseTable draws the synapse table in creation order.
func renderSynapseTable(s *design.Store) string {
	var rows [][]string
	for _, sy := range s.Synapses() {
		rows = append(rows, []string{
			strconv.Itoa(int(sy.ID)),
			sy.Start.String() + " " + iconArrow + " " + sy.End.String(),
			strconv.FormatFloat(sy.Init.Interval, 'g', -1, 64),
			fmt.Sprintf("[%g, %g]", sy.Init.Min, sy.Init.Max),
			strconv.FormatBool(sy.Bias),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Synapse", "Interval", "Range", "Bias").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

// printViolations lists the connectivity violations, or a success line.
func printViolations(s *design.Store) {
	if s.NeuronCount() == 0 {
		printWarning("Design is empty")
		return
	}
	violations := design.Check(s)
	if len(violations) == 0 {
		printSuccess("Design is valid")
		return
	}
	printError("%d neuron(s) break connectivity rules", len(violations))
	for _, v := range violations {
		printDetail("%s", v)
	}
}
