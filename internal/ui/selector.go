package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

const (
	stackListHeight = 8
	minWidth        = 50
	maxWidth        = 110
	colWidthRegion  = 14
	colWidthVPC     = 22
)

// StackModel represents the bubbletea model for stack selection
type StackModel struct {
	stacks       []pkgtypes.StackSummary
	filtered     []pkgtypes.StackSummary
	cursor       int
	offset       int
	search       string
	selected     *pkgtypes.StackSummary
	quitting     bool
	cancelled    bool
	termWidth    int
	contentWidth int
	nameWidth    int
}

// NewStackModel creates a new stack selector model
func NewStackModel(stacks []pkgtypes.StackSummary) StackModel {
	m := StackModel{
		stacks:    stacks,
		filtered:  stacks,
		termWidth: 80,
	}
	m.calculateWidths()
	return m
}

func (m *StackModel) calculateWidths() {
	m.contentWidth = m.termWidth - 2
	if m.contentWidth < minWidth {
		m.contentWidth = minWidth
	}
	if m.contentWidth > maxWidth {
		m.contentWidth = maxWidth
	}

	fixedWidth := 3 + colWidthRegion + 2 + colWidthVPC + 2
	m.nameWidth = m.contentWidth - fixedWidth
	if m.nameWidth < 10 {
		m.nameWidth = 10
	}
}

// Init implements tea.Model
func (m StackModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model
func (m StackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.calculateWidths()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.cancelled = true
			return m, tea.Quit

		case tea.KeyEnter:
			if len(m.filtered) > 0 {
				m.selected = &m.filtered[m.cursor]
				m.quitting = true
				return m, tea.Quit
			}

		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}

		case tea.KeyDown:
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				if m.cursor >= m.offset+stackListHeight {
					m.offset = m.cursor - stackListHeight + 1
				}
			}

		case tea.KeyBackspace:
			if len(m.search) > 0 {
				m.search = m.search[:len(m.search)-1]
				m.filterStacks()
			}

		case tea.KeyRunes:
			m.search += string(msg.Runes)
			m.filterStacks()
		}
	}

	return m, nil
}

func (m *StackModel) filterStacks() {
	if m.search == "" {
		m.filtered = m.stacks
	} else {
		query := strings.ToLower(m.search)
		m.filtered = nil
		for _, s := range m.stacks {
			if strings.Contains(strings.ToLower(s.Name), query) ||
				strings.Contains(strings.ToLower(s.Region), query) ||
				strings.Contains(strings.ToLower(s.VPCID), query) {
				m.filtered = append(m.filtered, s)
			}
		}
	}
	if m.cursor >= len(m.filtered) {
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		} else {
			m.cursor = 0
		}
	}
	m.offset = 0
}

// View implements tea.Model
func (m StackModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	w := m.contentWidth

	sb.WriteString(BorderStyle.Render(TopLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(TopRight))
	sb.WriteString("\n")

	// Search input
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(NameStyle.Render(padRight(" > "+m.search, w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	// Column header
	header := "   " + padRight("Stack", m.nameWidth) + "  " +
		padRight("Region", colWidthRegion) + "  " +
		padRight("VPC", colWidthVPC)
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(HeaderStyle.Render(padRight(header, w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	visibleEnd := m.offset + stackListHeight
	if visibleEnd > len(m.filtered) {
		visibleEnd = len(m.filtered)
	}

	for i := m.offset; i < visibleEnd; i++ {
		sb.WriteString(m.renderStackRow(i))
	}

	for i := len(m.filtered); i < m.offset+stackListHeight; i++ {
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(strings.Repeat(" ", w))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
	}

	sb.WriteString(BorderStyle.Render(BottomLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(BottomRight))
	sb.WriteString("\n")

	sb.WriteString(m.renderStatusBar())

	return sb.String()
}

func (m StackModel) renderStackRow(idx int) string {
	var sb strings.Builder
	s := m.filtered[idx]
	w := m.contentWidth

	sb.WriteString(BorderStyle.Render(Vertical))

	var line strings.Builder
	plainWidth := 0

	if idx == m.cursor {
		line.WriteString(" > ")
	} else {
		line.WriteString("   ")
	}
	plainWidth += 3

	nameText := padRight(s.Name, m.nameWidth)
	line.WriteString(NameStyle.Render(nameText))
	line.WriteString("  ")
	plainWidth += m.nameWidth + 2

	regionText := padRight(s.Region, colWidthRegion)
	line.WriteString(AZStyle.Render(regionText))
	line.WriteString("  ")
	plainWidth += colWidthRegion + 2

	vpcText := padRight(s.VPCID, colWidthVPC)
	line.WriteString(IDStyle.Render(vpcText))
	plainWidth += colWidthVPC

	if plainWidth < w {
		line.WriteString(strings.Repeat(" ", w-plainWidth))
	}

	sb.WriteString(line.String())
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	return sb.String()
}

func (m StackModel) renderStatusBar() string {
	var sb strings.Builder
	w := m.contentWidth + 2

	countInfo := fmt.Sprintf("  %d/%d stacks", len(m.filtered), len(m.stacks))
	hintsPlain := "[Enter:select] [Esc:cancel]"

	padding := w - len(countInfo) - len(hintsPlain)

	sb.WriteString(countInfo)
	if padding > 0 {
		sb.WriteString(strings.Repeat(" ", padding))
	}
	sb.WriteString(HintStyle.Render(hintsPlain))
	sb.WriteString("\n")

	return sb.String()
}

// SelectStack displays an interactive selector for deployed stacks and
// returns the selected one
func SelectStack(stacks []pkgtypes.StackSummary) (*pkgtypes.StackSummary, error) {
	if len(stacks) == 0 {
		return nil, fmt.Errorf("no stacks available")
	}

	m := NewStackModel(stacks)
	p := tea.NewProgram(m)

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(StackModel)
	if result.cancelled {
		return nil, fmt.Errorf("selection cancelled")
	}

	return result.selected, nil
}
