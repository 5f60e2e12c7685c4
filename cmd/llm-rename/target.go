package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedgentry/llm-rename/internal/document"
	"github.com/jedgentry/llm-rename/internal/rename"
	"github.com/jedgentry/llm-rename/pkg/types"
)

// parseTarget parses FILE:LINE:COL with 1-indexed LINE and COL into a
// rename request
func parseTarget(target string, workspaceRoot string) (rename.Request, error) {
	rest, colStr, ok := cutLast(target, ":")
	if !ok {
		return rename.Request{}, fmt.Errorf("invalid target %q, expected FILE:LINE:COL", target)
	}
	file, lineStr, ok := cutLast(rest, ":")
	if !ok || file == "" {
		return rename.Request{}, fmt.Errorf("invalid target %q, expected FILE:LINE:COL", target)
	}

	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return rename.Request{}, fmt.Errorf("invalid line %q in target %q: must be a positive number", lineStr, target)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return rename.Request{}, fmt.Errorf("invalid column %q in target %q: must be a positive number", colStr, target)
	}

	return rename.Request{
		URI:      document.PathToUri(file, workspaceRoot),
		Position: types.Position{Line: line - 1, Character: col - 1},
	}, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
