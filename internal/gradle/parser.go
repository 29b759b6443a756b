package gradle

import "strings"

// ParseProjects parses the output of `gradlew projects -q`. Lines look like:
//
//	Root project 'my-project'
//	+--- Project ':app'
//	\--- Project ':core'
func ParseProjects(output string) []Module {
	var modules []Module

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		start := strings.Index(trimmed, "Project '")
		if start < 0 {
			continue
		}
		rest := trimmed[start+len("Project '"):]
		end := strings.IndexByte(rest, '\'')
		if end < 0 {
			continue
		}
		path := rest[:end]
		name := path
		if i := strings.LastIndexByte(path, ':'); i >= 0 {
			name = path[i+1:]
		}
		if name == "" {
			continue
		}
		modules = append(modules, Module{Path: path, Name: name})
	}

	return modules
}

// ParseDependencies parses the output of
// `gradlew :module:dependencies --configuration compileClasspath -q`:
//
//	compileClasspath - Compile classpath for source set 'main'.
//	+--- org.jetbrains.kotlin:kotlin-stdlib:1.9.0
//	|    \--- org.jetbrains:annotations:13.0
//	+--- project :core
//	\--- org.some:lib:1.0 -> 1.1 (*)
func ParseDependencies(output string) []DependencyNode {
	lines := strings.Split(output, "\n")

	start := 0
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if strings.Contains(l, "compileClasspath") {
			start = i + 1
			break
		}
		if strings.HasPrefix(t, "+---") || strings.HasPrefix(t, "\\---") {
			start = i
			break
		}
	}

	var depLines []string
	for _, l := range lines[start:] {
		t := strings.TrimSpace(l)
		if t == "" {
			break
		}
		if strings.HasPrefix(t, "+") || strings.HasPrefix(t, "\\") || strings.HasPrefix(t, "|") {
			depLines = append(depLines, l)
			continue
		}
		break
	}

	nodes, _ := parseDepTree(depLines, 0)
	return nodes
}

func parseDepTree(lines []string, baseIndent int) ([]DependencyNode, int) {
	var nodes []DependencyNode
	i := 0

	for i < len(lines) {
		line := lines[i]
		indent := indentLevel(line)

		if indent < baseIndent && baseIndent > 0 {
			break
		}

		if indent == baseIndent || baseIndent == 0 && len(nodes) == 0 {
			if node, ok := parseDependencyLine(line); ok {
				children, consumed := parseDepTree(lines[i+1:], indent+1)
				node.Children = children
				nodes = append(nodes, node)
				i += 1 + consumed
				continue
			}
		} else if indent > baseIndent {
			// Child of the previous node, consumed by the recursion above.
			break
		}

		i++
	}

	return nodes, i
}

// indentLevel counts tree-drawing indent units: each level is a five-column
// "|    " or "     " prefix.
func indentLevel(line string) int {
	level := 0
	for len(line) >= 5 {
		chunk := line[:5]
		if chunk == "|    " || chunk == "     " {
			level++
			line = line[5:]
			continue
		}
		break
	}
	return level
}

func parseDependencyLine(line string) (DependencyNode, bool) {
	spec := strings.TrimLeft(line, "| +\\-")
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return DependencyNode{}, false
	}

	node := DependencyNode{}
	if strings.HasSuffix(spec, "(*)") {
		node.IsRepeat = true
		spec = strings.TrimSpace(strings.TrimSuffix(spec, "(*)"))
	}

	if rest, ok := strings.CutPrefix(spec, "project "); ok {
		node.Group = "project"
		node.Artifact = strings.TrimSpace(strings.Trim(rest, ":"))
		node.IsProject = true
		return node, true
	}

	base, resolved, _ := strings.Cut(spec, " -> ")
	node.ResolvedVersion = strings.TrimSpace(resolved)

	segments := strings.Split(base, ":")
	switch {
	case len(segments) >= 3:
		node.Group = segments[0]
		node.Artifact = segments[1]
		node.Version = segments[2]
	case len(segments) == 2:
		node.Group = segments[0]
		node.Artifact = segments[1]
	default:
		return DependencyNode{}, false
	}
	return node, true
}
