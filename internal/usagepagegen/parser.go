package usagepagegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Usage is one row of a usage page's table.
type Usage struct {
	ID   uint16
	Name string
	Type string
}

// Page is one parsed usage-page document: its frontmatter identity plus
// every usage row found in its table.
type Page struct {
	ID     uint16
	Name   string
	Usages []Usage
}

// PageParser turns a usage-page markdown document into a Page, using
// goldmark's table extension for the usage rows and goldmark-meta for
// the page's own ID and name.
type PageParser struct {
	md goldmark.Markdown
}

func NewPageParser() *PageParser {
	return &PageParser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, meta.Meta),
		),
	}
}

func (p *PageParser) Parse(source []byte) (*Page, error) {
	ctx := parser.NewContext()
	doc := p.md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	metaData := meta.Get(ctx)
	page := &Page{}
	if id, ok := metaData["page"]; ok {
		n, err := toUint16(id)
		if err != nil {
			return nil, fmt.Errorf("usage page frontmatter: %w", err)
		}
		page.ID = n
	}
	if name, ok := metaData["name"].(string); ok {
		page.Name = name
	}

	var walkErr error
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		table, ok := n.(*extast.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		usages, err := parseTable(table, source)
		if err != nil {
			walkErr = err
			return ast.WalkStop, nil
		}
		page.Usages = append(page.Usages, usages...)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}
	return page, nil
}

func parseTable(table *extast.Table, source []byte) ([]Usage, error) {
	var usages []Usage
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		if _, isHeader := row.(*extast.TableHeader); isHeader {
			continue
		}
		tr, ok := row.(*extast.TableRow)
		if !ok {
			continue
		}
		cells := make([]string, 0, 3)
		for cell := tr.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(cellText(cell, source)))
		}
		if len(cells) < 2 {
			continue
		}
		id, err := toUint16(cells[0])
		if err != nil {
			return nil, fmt.Errorf("usage row %q: %w", cells, err)
		}
		u := Usage{ID: id, Name: cells[1]}
		if len(cells) > 2 {
			u.Type = cells[2]
		}
		usages = append(usages, u)
	}
	return usages, nil
}

func cellText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		} else {
			sb.WriteString(cellText(c, source))
		}
	}
	return sb.String()
}

func toUint16(v any) (uint16, error) {
	switch t := v.(type) {
	case int:
		return uint16(t), nil
	case int64:
		return uint16(t), nil
	case float64:
		return uint16(t), nil
	case string:
		s := strings.TrimSpace(t)
		base := 10
		if strings.HasPrefix(strings.ToLower(s), "0x") {
			s = s[2:]
			base = 16
		}
		n, err := strconv.ParseUint(s, base, 16)
		if err != nil {
			return 0, err
		}
		return uint16(n), nil
	default:
		return 0, fmt.Errorf("unsupported numeric value %v (%T)", v, v)
	}
}
