package gradle

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
)

// ModuleGraph builds a directed graph of the project's modules and their
// direct project references. Duplicate vertices and edges from repeated
// tree entries are tolerated.
func (r *Runner) ModuleGraph(ctx context.Context) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	modules, err := r.Modules(ctx)
	if err != nil {
		return nil, err
	}

	for _, m := range modules {
		_ = g.AddVertex(m.Path)
	}

	for _, m := range modules {
		deps, err := r.Dependencies(ctx, m.Path)
		if err != nil {
			// A module without the configuration (e.g. the root) is not an
			// error for the graph as a whole.
			continue
		}
		for _, dep := range flatten(deps) {
			if !dep.IsProject {
				continue
			}
			target := ":" + dep.Artifact
			_ = g.AddVertex(target)
			_ = g.AddEdge(m.Path, target)
		}
	}

	return g, nil
}

func flatten(nodes []DependencyNode) []DependencyNode {
	var out []DependencyNode
	for _, n := range nodes {
		out = append(out, n)
		out = append(out, flatten(n.Children)...)
	}
	return out
}

// FormatTree renders a dependency tree for the tool response. Without a
// module it lists all modules; with one it shows the classpath tree.
func (r *Runner) FormatTree(ctx context.Context, module string) (string, error) {
	var sb strings.Builder

	if module == "" {
		modules, err := r.Modules(ctx)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "Project modules (%d total):\n\n", len(modules))
		sorted := append([]Module(nil), modules...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
		for _, m := range sorted {
			fmt.Fprintf(&sb, "  %s (%s)\n", m.Path, m.Name)
		}

		// Inter-module references, when the per-module trees are available.
		if g, gErr := r.ModuleGraph(ctx); gErr == nil {
			if adj, aErr := g.AdjacencyMap(); aErr == nil {
				var edges []string
				for from, tos := range adj {
					for to := range tos {
						edges = append(edges, fmt.Sprintf("  %s -> %s", from, to))
					}
				}
				if len(edges) > 0 {
					sort.Strings(edges)
					sb.WriteString("\nModule references:\n")
					for _, e := range edges {
						sb.WriteString(e + "\n")
					}
				}
			}
		}
		return sb.String(), nil
	}

	deps, err := r.Dependencies(ctx, module)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "Dependencies for module '%s':\n\n", module)
	for _, dep := range deps {
		formatNode(&sb, dep, 0)
	}
	return sb.String(), nil
}

func formatNode(sb *strings.Builder, node DependencyNode, depth int) {
	indent := strings.Repeat("  ", depth)
	prefix := ""
	if depth > 0 {
		prefix = "├── "
	}

	if node.IsProject {
		fmt.Fprintf(sb, "%s%sproject :%s\n", indent, prefix, node.Artifact)
	} else {
		version := node.Version
		if node.ResolvedVersion != "" {
			version = node.Version + " -> " + node.ResolvedVersion
		}
		repeat := ""
		if node.IsRepeat {
			repeat = " (*)"
		}
		fmt.Fprintf(sb, "%s%s%s:%s:%s%s\n", indent, prefix, node.Group, node.Artifact, version, repeat)
	}

	for _, child := range node.Children {
		formatNode(sb, child, depth+1)
	}
}
