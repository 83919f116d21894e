package main

import (
	"fmt"

	"github.com/eqlog/eqlog-go/pkg/eqlog"
	"github.com/eqlog/eqlog-go/pkg/eqlog/pattern"
)

// buildParser builds a Parser from pattern file paths.
// Returns nil if no patterns are specified (use default parser).
// Custom patterns are tried in file order before the built-in ones and the
// first match wins.
func buildParser(patternFiles []string) (eqlog.Parser, error) {
	if len(patternFiles) == 0 {
		return nil, nil
	}

	parsers := make([]eqlog.Parser, 0, len(patternFiles)+1)
	for i, path := range patternFiles {
		rp, err := pattern.NewRegexParserFromFile(path)
		if err != nil {
			// Error from pattern package is already sanitized (no path)
			return nil, fmt.Errorf("pattern file %d: %w", i+1, err)
		}
		parsers = append(parsers, rp)
	}
	parsers = append(parsers, eqlog.DefaultParser{})

	return &eqlog.ParserChain{
		Mode:    eqlog.ChainFirst,
		Parsers: parsers,
	}, nil
}
