package selector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goeval "github.com/edisonguo/govaluate"
)

// Options control which rasters of a directory are picked.
type Options struct {
	// Extension the file name must end with, compared case sensitively.
	Extension string

	// Markers lists substrings of which the file name must contain at
	// least one.
	Markers []string

	// Pattern is an optional boolean expression over the variables
	// "path" and "name", e.g. "name =~ '_2023'". It is ANDed with the
	// extension and marker tests.
	Pattern string
}

// Selector applies Options to directory listings.
type Selector struct {
	opts    Options
	pattern *goeval.EvaluableExpression
}

// New compiles the options.
func New(opts Options) (*Selector, error) {
	if len(opts.Markers) == 0 {
		return nil, fmt.Errorf("at least one file name marker is required")
	}

	expr, err := parsePatternExpression(opts.Pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern expression: %v", err)
	}
	return &Selector{opts: opts, pattern: expr}, nil
}

// Select is a shorthand for New followed by Selector.Select.
func Select(dir string, opts Options) ([]string, error) {
	sel, err := New(opts)
	if err != nil {
		return nil, err
	}
	return sel.Select(dir)
}

// Select lists dir without recursing and returns the absolute path of
// every matching regular file, sorted by name. No match is not an error.
func (s *Selector) Select(dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("Could not read dir: %v", err)
	}

	var files []string
	for _, ent := range entries {
		name := ent.Name()
		if !s.MatchName(name) {
			continue
		}

		filePath := filepath.Join(absDir, name)
		fMode := ent.Type()
		if fMode&os.ModeSymlink != 0 {
			fStat, err := os.Stat(filePath)
			if err != nil {
				continue
			}
			fMode = fStat.Mode()
		}
		if !fMode.IsRegular() {
			continue
		}

		if s.pattern != nil {
			ok, err := s.evaluatePatternExpression(filePath, name)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		files = append(files, filePath)
	}
	return files, nil
}

// MatchName reports whether a bare file name passes the extension and
// marker tests. Hidden files never match.
func (s *Selector) MatchName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !strings.HasSuffix(name, s.opts.Extension) {
		return false
	}
	for _, m := range s.opts.Markers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

func parsePatternExpression(pattern string) (*goeval.EvaluableExpression, error) {
	if len(strings.TrimSpace(pattern)) == 0 {
		return nil, nil
	}

	expr, err := goeval.NewEvaluableExpression(pattern)
	if err != nil {
		return nil, err
	}

	validVariables := map[string]struct{}{"path": struct{}{}, "name": struct{}{}}
	for _, token := range expr.Tokens() {
		if token.Kind == goeval.VARIABLE {
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
			}
			if _, found := validVariables[varName]; !found {
				return nil, fmt.Errorf("variable %v is not supported. Valid variables are %v", varName, validVariables)
			}
		}
	}
	return expr, nil
}

func (s *Selector) evaluatePatternExpression(filePath, name string) (bool, error) {
	parameters := map[string]interface{}{"path": filePath, "name": name}
	result, err := s.pattern.Evaluate(parameters)
	if err != nil {
		return false, fmt.Errorf("pattern expression: %v", err)
	}

	val, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("pattern expression: result '%v' is not boolean", result)
	}
	return val, nil
}
