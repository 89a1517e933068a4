package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText drops non-printable characters and collapses runs of whitespace.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// StripTags returns the visible text of an HTML fragment.
func StripTags(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return CleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	return CleanText(doc.Text())
}

// Table is the text content of an HTML <table>, the first row is the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// ExtractTables returns every table under `sel` in document order. Nested tables are
// returned on their own and their cells are not repeated in the enclosing table.
func ExtractTables(sel *goquery.Selection) []Table {
	var tables []Table
	sel.Find("table").Each(func(_ int, t *goquery.Selection) {
		var rows [][]string
		t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if tr.Closest("table").Get(0) != t.Get(0) {
				return
			}
			var cells []string
			tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, CleanText(GetText(cell.Get(0))))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) == 0 {
			tables = append(tables, Table{})
			return
		}
		tables = append(tables, Table{Header: rows[0], Rows: rows[1:]})
	})
	return tables
}
