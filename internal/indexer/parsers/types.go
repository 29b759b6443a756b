package parsers

import (
	"path/filepath"

	"github.com/ktxref/ktxref/internal/indexer/facts"
)

// Extractor turns source bytes into per-file facts. Implementations are not
// safe for concurrent use: each worker owns its own instance.
type Extractor interface {
	// Extract parses the file and walks the CST once. Parse errors do not
	// abort extraction; the extractor works best-effort on partial trees.
	Extract(path string, source []byte) (*facts.FileFacts, error)

	// Language reports the language this extractor handles.
	Language() facts.Language
}

// ForLanguage returns a fresh extractor for the given language, or nil when
// the language is not supported.
func ForLanguage(lang facts.Language) Extractor {
	switch lang {
	case facts.LangKotlin:
		return NewKotlinExtractor()
	case facts.LangJava:
		return NewJavaExtractor()
	}
	return nil
}

// DetectLanguage maps a file path to its language by extension.
func DetectLanguage(path string) (facts.Language, bool) {
	switch filepath.Ext(path) {
	case ".kt", ".kts":
		return facts.LangKotlin, true
	case ".java":
		return facts.LangJava, true
	}
	return "", false
}
