package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/ktxref/ktxref/internal/indexer/facts"
)

// treeSitterExtractor provides the parse step and CST helpers shared by the
// language extractors. It owns one grammar handle; a fresh *sitter.Parser is
// created per Extract call, so instances must not be shared across workers.
type treeSitterExtractor struct {
	language *sitter.Language
	lang     facts.Language
}

func newTreeSitterExtractor(language *sitter.Language, lang facts.Language) *treeSitterExtractor {
	return &treeSitterExtractor{
		language: language,
		lang:     lang,
	}
}

// parse produces the CST for the given source. The caller owns the tree and
// must Close it.
func (e *treeSitterExtractor) parse(path string, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(e.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s file: %s", e.lang, path)
	}
	return tree, nil
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// position converts a node's byte range into a facts.Position.
func position(path string, node *sitter.Node) facts.Position {
	return facts.Position{
		File:      path,
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
	}
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for
// each node. Returning false from the visitor prunes the subtree.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all child nodes with the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}

// hasChildOfType reports whether the node has a direct child of the type.
// Keyword tokens appear as children named after themselves, so this doubles
// as a keyword test ("interface", "enum", ...).
func hasChildOfType(node *sitter.Node, nodeType string) bool {
	return findChildByType(node, nodeType) != nil
}

// findIdentifierChild returns the text of the first identifier-like child.
func findIdentifierChild(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "identifier", "simple_identifier", "type_identifier":
			return nodeText(child, source)
		}
	}
	return ""
}

// sameNode reports whether two nodes cover the identical byte range. The
// bindings return distinct wrapper values for the same CST node, so byte
// ranges are the stable comparison.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

// isQualifierChain reports whether a receiver expression, as written, is a
// plain dotted identifier chain (Config, a.b.Config). Call results and other
// compound expressions do not qualify; the resolver has no type information
// to follow them.
func isQualifierChain(text string) bool {
	if text == "" {
		return false
	}
	for _, seg := range strings.Split(text, ".") {
		if seg == "" {
			return false
		}
		for i, r := range seg {
			if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
				continue
			}
			if i > 0 && r >= '0' && r <= '9' {
				continue
			}
			return false
		}
	}
	return true
}

// countErrorNodes counts ERROR nodes in the tree, a best-effort signal that
// some subtrees were skipped.
func countErrorNodes(root *sitter.Node) int {
	count := 0
	walkTree(root, func(n *sitter.Node) bool {
		if n.IsError() {
			count++
		}
		return true
	})
	return count
}
