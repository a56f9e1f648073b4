package agent

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// Console prints run progress. A nil *Console discards everything.
type Console struct {
	out    io.Writer
	styled bool
	render *glamour.TermRenderer
}

// NewConsole writes plain text to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// NewTerminalConsole writes to stdout, styling headings and rendering
// markdown when stdout is a terminal.
func NewTerminalConsole() *Console {
	c := NewConsole(os.Stdout)
	if term.IsTerminal(int(os.Stdout.Fd())) {
		c.styled = true
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(0),
		); err == nil {
			c.render = r
		}
	}
	return c
}

// Iteration prints the banner for goal-loop iteration n.
func (c *Console) Iteration(n int) {
	if c == nil {
		return
	}
	c.line(c.style(bannerStyle, fmt.Sprintf("\n--- Iteration %d ---", n)))
}

// Section prints a heading followed by free text.
func (c *Console) Section(title, body string) {
	if c == nil {
		return
	}
	c.line(c.style(headingStyle, "\n"+title+":"))
	c.line(c.markdown(body))
}

// Error prints an error message.
func (c *Console) Error(msg string) {
	if c == nil {
		return
	}
	c.line(c.style(errorStyle, "\nError occurred: "+msg))
}

// Steps prints a numbered step list starting at first.
func (c *Console) Steps(title string, steps []string, first int) {
	if c == nil {
		return
	}
	c.line(c.style(headingStyle, "\n"+title+":"))
	for i, s := range steps {
		c.line(fmt.Sprintf("%d. %s", first+i, s))
	}
}

func (c *Console) style(s lipgloss.Style, text string) string {
	if !c.styled {
		return text
	}
	return s.Render(text)
}

func (c *Console) markdown(text string) string {
	if c.render == nil {
		return text
	}
	out, err := c.render.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (c *Console) line(s string) {
	fmt.Fprintln(c.out, s)
}
