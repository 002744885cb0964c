package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

var errPromptAborted = errors.New("reconciliation aborted")

// linePrompter asks on plain line-oriented input, for pipes and dumb terminals.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

func (p *linePrompter) Prompt(entry domain.LimitFamilyEntry, labels []string) (ports.Resolution, error) {
	fmt.Fprintf(p.out, "\nNo live result for %s\n", entry.Label())
	for {
		fmt.Fprint(p.out, "[r]emove, [a]dd, [m]atch, [q]uit: ")
		answer, err := p.readLine()
		if err != nil {
			return ports.Resolution{}, err
		}
		switch strings.ToLower(answer) {
		case "r", "remove":
			return ports.Resolution{Action: ports.ActionRemove}, nil
		case "a", "add":
			row, err := p.askRow(len(labels))
			if err != nil {
				return ports.Resolution{}, err
			}
			return ports.Resolution{Action: ports.ActionAdd, Row: row}, nil
		case "m", "match":
			if len(labels) == 0 {
				fmt.Fprintln(p.out, "no live results to match")
				continue
			}
			label, err := p.askLabel(labels)
			if err != nil {
				return ports.Resolution{}, err
			}
			return ports.Resolution{Action: ports.ActionMatch, Label: label}, nil
		case "q", "quit":
			return ports.Resolution{}, errPromptAborted
		}
	}
}

func (p *linePrompter) askRow(rows int) (int, error) {
	for {
		fmt.Fprintf(p.out, "insert at row [0-%d, default %d]: ", rows, rows)
		answer, err := p.readLine()
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return rows, nil
		}
		row, err := strconv.Atoi(answer)
		if err == nil && row >= 0 && row <= rows {
			return row, nil
		}
	}
}

func (p *linePrompter) askLabel(labels []string) (string, error) {
	for i, l := range labels {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, l)
	}
	for {
		fmt.Fprintf(p.out, "match to [1-%d]: ", len(labels))
		answer, err := p.readLine()
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(labels) {
			return labels[n-1], nil
		}
	}
}

func (p *linePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	case errors.Is(err, io.EOF):
		return "", errPromptAborted
	default:
		return "", err
	}
	return strings.TrimSpace(line), nil
}
