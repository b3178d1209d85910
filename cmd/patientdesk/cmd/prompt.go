package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from the user. Passwords are read without echo when
// the input is a terminal and as plain lines otherwise.
type prompter struct {
	in           *bufio.Reader
	out          io.Writer
	fd           int
	terminal     bool
	readPassword func(fd int) ([]byte, error)
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{
		in:           bufio.NewReader(in),
		out:          out,
		readPassword: term.ReadPassword,
	}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.terminal = term.IsTerminal(p.fd)
	}
	return p
}

// text returns def when it is set, otherwise asks for a line.
func (p *prompter) text(label, def string) (string, error) {
	if def != "" {
		return def, nil
	}
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", err
	}
	return p.line()
}

func (p *prompter) password(label string) (string, error) {
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", err
	}
	if !p.terminal {
		return p.line()
	}
	pw, err := p.readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (p *prompter) line() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
