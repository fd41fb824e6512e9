package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	groupColumns    = []string{"group", "muscle group", "muscle_group", "category"}
	exerciseColumns = []string{"exercise", "name", "exercise name"}
)

// Load reads a catalog file. The format follows the extension: YAML, CSV, or
// an HTML page whose first table lists one exercise per row.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Parse(data)
	case ".csv":
		return ParseCSV(bytes.NewReader(data))
	case ".html", ".htm":
		return ParseHTML(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (use .yaml, .csv or .html)", filepath.Ext(path))
	}
}

// ParseCSV reads a header row followed by one exercise per row.
func ParseCSV(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog csv is empty")
	}
	return fromRows(records[0], records[1:])
}

// ParseHTML reads the first <table> of an HTML document. Header cells may be
// <th> or the first row of <td>.
func ParseHTML(r io.Reader) (*Catalog, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table found in catalog html")
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(cell.Text()))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog table has no rows")
	}
	return fromRows(rows[0], rows[1:])
}

// fromRows groups tabular rows by their group column, keeping the order in
// which groups and exercises first appear.
func fromRows(header []string, rows [][]string) (*Catalog, error) {
	gi := columnIndex(header, groupColumns)
	ei := columnIndex(header, exerciseColumns)
	if gi < 0 || ei < 0 {
		return nil, fmt.Errorf("catalog header needs a group and an exercise column, got %q", header)
	}

	var groups []Group
	pos := make(map[string]int)
	for _, row := range rows {
		if gi >= len(row) || ei >= len(row) {
			continue
		}
		group, ex := strings.TrimSpace(row[gi]), strings.TrimSpace(row[ei])
		if group == "" || ex == "" {
			continue
		}
		i, ok := pos[group]
		if !ok {
			i = len(groups)
			pos[group] = i
			groups = append(groups, Group{Name: group})
		}
		groups[i].Exercises = append(groups[i].Exercises, ex)
	}
	return New(groups)
}

func columnIndex(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}
