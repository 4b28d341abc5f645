package hyrcania

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

var (
	// ErrOptionOutOfRange is returned by Choose if the user's response is invalid
	ErrOptionOutOfRange = errors.New("Invalid response, please choose one of the provided options")

	// ErrNotInteractive is returned by Choose when there is no terminal to ask
	ErrNotInteractive = errors.New("Cannot prompt, standard input is not a terminal")
)

func normalizeResponse(x string) string {
	return strings.Trim(strings.ToLower(x), "\t\r\n\v ")
}

// Prompter asks the user questions on a terminal
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewPrompter reads answers from in. Questions are only asked when in is a terminal.
func NewPrompter(in *os.File, out io.Writer) *Prompter {
	fd := in.Fd()
	return &Prompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// NewScriptedPrompter answers questions from a reader as if it were a terminal
func NewScriptedPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: true,
	}
}

func (p *Prompter) Interactive() bool {
	return p.interactive
}

func (p *Prompter) readLine() string {
	line, _ := p.in.ReadString('\n')
	return line
}

// Confirm an action, ask the user to input y/n. Without a terminal the answer is always no.
func (p *Prompter) Confirm(question string, args ...interface{}) bool {
	if !p.interactive {
		return false
	}

	fmt.Fprintf(p.out, "%s [y/N] ", fmt.Sprintf(question, args...))
	switch normalizeResponse(p.readLine()) {
	case "y", "ye", "yes":
		return true
	default:
		return false
	}
}

// Choose asks the user to pick one of several options, return the one they picked
func (p *Prompter) Choose(question string, options []string, args ...interface{}) (choice string, err error) {
	if !p.interactive {
		return "", ErrNotInteractive
	}

	optionStr := strings.Builder{}
	optionStr.Grow(12)

	for i, s := range options {
		fmt.Fprintf(p.out, " %d) %s\n", i+1, s)
		if i < 3 {
			if i != 0 {
				optionStr.WriteString("/")
			}
			optionStr.WriteString(strconv.Itoa(i + 1))
		}
	}
	if len(options) > 3 {
		optionStr.WriteString("...")
	}

	fmt.Fprintf(p.out, "%s [%s] ", fmt.Sprintf(question, args...), optionStr.String())
	option, err := strconv.Atoi(normalizeResponse(p.readLine()))
	if err != nil {
		return "", ErrOptionOutOfRange
	}

	if option > len(options) || option < 1 {
		return "", ErrOptionOutOfRange
	}

	return options[option-1], nil
}
