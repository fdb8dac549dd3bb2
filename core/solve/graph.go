package solve

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/IRENA-FlexTool/FlexTool/core/model"
)

// ValidateIncludes checks that the inclusion graph of the catalog is acyclic
// and that every included solve is defined.
func ValidateIncludes(cat *model.Catalog) error {
	names := cat.Names()
	ids := make(map[string]int64, len(names))
	g := simple.NewDirectedGraph()
	for i, n := range names {
		ids[n] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, n := range names {
		spec := cat.Solves[n]
		for _, child := range spec.Includes {
			to, ok := ids[child]
			if !ok {
				return fmt.Errorf("%w: %s includes %s", ErrUnknownSolve, n, child)
			}
			if child == n {
				return fmt.Errorf("%w: %s includes itself", ErrIncludeCycle, n)
			}
			g.SetEdge(g.NewEdge(simple.Node(ids[n]), simple.Node(to)))
		}
	}
	if _, err := topo.Sort(g); err != nil {
		var u topo.Unorderable
		if !errors.As(err, &u) {
			return err
		}
		var cycles []string
		for _, comp := range u {
			members := make([]string, len(comp))
			for i, node := range comp {
				members[i] = names[node.ID()]
			}
			sort.Strings(members)
			cycles = append(cycles, strings.Join(members, ","))
		}
		return fmt.Errorf("%w: %s", ErrIncludeCycle, strings.Join(cycles, "; "))
	}
	return nil
}
