package solver

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrNotOptimal is returned when a CPLEX solution is neither optimal nor
// integer optimal.
var ErrNotOptimal = fmt.Errorf("%w: optimality could not be reached", ErrInfeasible)

type cplexSolutionXML struct {
	Header struct {
		Status    string `xml:"solutionStatusString,attr"`
		Objective string `xml:"objectiveValue,attr"`
	} `xml:"header"`
	Constraints []cplexEntry `xml:"linearConstraints>constraint"`
	Variables   []cplexEntry `xml:"variables>variable"`
}

type cplexEntry struct {
	Index       int    `xml:"index,attr"`
	Status      string `xml:"status,attr"`
	Slack       string `xml:"slack,attr"`
	Dual        string `xml:"dual,attr"`
	Value       string `xml:"value,attr"`
	ReducedCost string `xml:"reducedCost,attr"`
}

var basisStatus = map[string]string{"BS": "b", "LL": "l", "UL": "u"}

// ConvertCPLEX rewrites a CPLEX XML solution as a glpsol solution that the
// model can read back. Row 1 of the glpsol file is the objective.
func ConvertCPLEX(r io.Reader, w io.Writer) error {
	var sol cplexSolutionXML
	if err := xml.NewDecoder(r).Decode(&sol); err != nil {
		return fmt.Errorf("parse cplex solution: %w", err)
	}
	rows, cols := 1, 0
	if n := len(sol.Constraints); n > 0 {
		rows = sol.Constraints[n-1].Index + 2
	}
	if n := len(sol.Variables); n > 0 {
		cols = sol.Variables[n-1].Index + 1
	}
	obj := sol.Header.Objective

	var b bytes.Buffer
	switch sol.Header.Status {
	case "optimal":
		fmt.Fprintf(&b, "s bas %d %d f f %s\n", rows, cols, obj)
		fmt.Fprintf(&b, "i 1 b %s 0\n", obj)
		for _, c := range sol.Constraints {
			fmt.Fprintf(&b, "i %d %s %s %s\n", c.Index+2, status(c.Status), c.Slack, c.Dual)
		}
		for _, v := range sol.Variables {
			fmt.Fprintf(&b, "j %d %s %s %s\n", v.Index+1, status(v.Status), v.Value, v.ReducedCost)
		}
	case "integer optimal solution":
		fmt.Fprintf(&b, "s mip %d %d o %s\n", rows, cols, obj)
		fmt.Fprintf(&b, "i 1 %s\n", obj)
		for _, c := range sol.Constraints {
			fmt.Fprintf(&b, "i %d %s\n", c.Index+2, c.Slack)
		}
		for _, v := range sol.Variables {
			fmt.Fprintf(&b, "j %d %s\n", v.Index+1, v.Value)
		}
	default:
		return fmt.Errorf("%w: status %s", ErrNotOptimal, strconv.Quote(sol.Header.Status))
	}
	b.WriteString("e o f")
	_, err := w.Write(b.Bytes())
	return err
}

// ConvertCPLEXFile converts the solution at src into dst. A missing src
// surfaces as os.ErrNotExist.
func ConvertCPLEXFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	var out bytes.Buffer
	if err := ConvertCPLEX(in, &out); err != nil {
		return err
	}
	return os.WriteFile(dst, out.Bytes(), 0o644)
}

func status(s string) string {
	if m, ok := basisStatus[s]; ok {
		return m
	}
	return s
}
