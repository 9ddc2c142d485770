// Command sqllint checks that every SQL statement constant starts with a
// unique "--sql <uuid>" marker, the tag infra.SQLRunner logs queries under.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	statementPattern = regexp.MustCompile(`(?i)^\s*(--sql\b|select\b|insert\b|update\b|delete\b|with\b)`)
	markerPattern    = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type finding struct {
	pos     token.Position
	name    string
	message string
}

func (f finding) String() string {
	return fmt.Sprintf("%s:%d %s: %s", f.pos.Filename, f.pos.Line, f.name, f.message)
}

type statement struct {
	pos    token.Position
	name   string
	marker string
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	os.Exit(run(targets, os.Stdout, os.Stderr))
}

func run(targets []string, stdout, stderr io.Writer) int {
	var stmts []statement
	var findings []finding
	for _, target := range targets {
		s, f, err := lintTarget(target)
		if err != nil {
			fmt.Fprintf(stderr, "sqllint: %v\n", err)
			return 2
		}
		stmts = append(stmts, s...)
		findings = append(findings, f...)
	}
	findings = append(findings, duplicates(stmts)...)
	if len(findings) == 0 {
		fmt.Fprintf(stdout, "sqllint: %d statements ok\n", len(stmts))
		return 0
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].pos.Filename != findings[j].pos.Filename {
			return findings[i].pos.Filename < findings[j].pos.Filename
		}
		return findings[i].pos.Line < findings[j].pos.Line
	})
	for _, f := range findings {
		fmt.Fprintln(stderr, f)
	}
	return 1
}

func lintTarget(target string) ([]statement, []finding, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return lintFile(target)
	}
	var stmts []statement
	var findings []finding
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		s, f, err := lintFile(path)
		if err != nil {
			return err
		}
		stmts = append(stmts, s...)
		findings = append(findings, f...)
		return nil
	})
	return stmts, findings, err
}

func lintFile(path string) ([]statement, []finding, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, nil, err
	}
	var stmts []statement
	var findings []finding
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			raw, err := strconv.Unquote(lit.Value)
			if err != nil || !statementPattern.MatchString(raw) {
				continue
			}
			name := "_"
			if i < len(vs.Names) {
				name = vs.Names[i].Name
			}
			pos := fset.Position(lit.Pos())
			m := markerPattern.FindStringSubmatch(firstLine(raw))
			if m == nil {
				findings = append(findings, finding{pos: pos, name: name, message: "missing or invalid --sql <uuid> marker"})
				continue
			}
			stmts = append(stmts, statement{pos: pos, name: name, marker: m[1]})
		}
		return true
	})
	return stmts, findings, nil
}

func duplicates(stmts []statement) []finding {
	first := make(map[string]statement, len(stmts))
	var findings []finding
	for _, s := range stmts {
		if prev, ok := first[s.marker]; ok {
			findings = append(findings, finding{
				pos:     s.pos,
				name:    s.name,
				message: fmt.Sprintf("marker %s already used by %s", s.marker, prev.name),
			})
			continue
		}
		first[s.marker] = s
	}
	return findings
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
