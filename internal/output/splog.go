// Package output handles user-facing CLI output and the optional debug log.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Splog provides structured output for commands
type Splog struct {
	writer io.Writer
	styled bool
}

// NewSplog creates a new splog instance writing to stdout, with styling when
// stdout is a terminal.
func NewSplog() *Splog {
	return &Splog{
		writer: os.Stdout,
		styled: isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// NewSplogTo creates a splog writing to the given writer, unstyled.
func NewSplogTo(w io.Writer) *Splog {
	return &Splog{writer: w}
}

// Info writes a plain message
func (s *Splog) Info(format string, args ...any) {
	fmt.Fprintf(s.writer, format+"\n", args...)
}

// Notice writes a success message
func (s *Splog) Notice(format string, args ...any) {
	s.writeStyled(noticeStyle, format, args...)
}

// Warn writes a warning message
func (s *Splog) Warn(format string, args ...any) {
	s.writeStyled(warnStyle, format, args...)
}

// Error writes an error message
func (s *Splog) Error(format string, args ...any) {
	s.writeStyled(errorStyle, format, args...)
}

// Page writes pre-formatted output such as diff text
func (s *Splog) Page(content string) {
	fmt.Fprint(s.writer, content)
}

// Newline writes a newline
func (s *Splog) Newline() {
	fmt.Fprintln(s.writer)
}

func (s *Splog) writeStyled(style lipgloss.Style, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.styled {
		msg = style.Render(msg)
	}
	fmt.Fprintln(s.writer, msg)
}
