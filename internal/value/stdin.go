package value

import (
	"bufio"
	"fmt"
	"io"
)

// StdinSource is the InputSource used outside batch mode: it prints the
// rendered prompt and reads one line from the given reader. This is the
// one piece of "interactive resolution" the value engine owns directly;
// rendering a full terminal UI around it is the TUI layer's job and out
// of scope (spec.md §1 Non-goals).
type StdinSource struct {
	Out io.Writer
	In  *bufio.Reader
}

func NewStdinSource(out io.Writer, in io.Reader) *StdinSource {
	return &StdinSource{Out: out, In: bufio.NewReader(in)}
}

func (s *StdinSource) ReadLine(prompt string) (string, error) {
	if _, err := fmt.Fprintf(s.Out, "%s: ", prompt); err != nil {
		return "", err
	}
	line, err := s.In.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return line, nil
}
