package windows

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fontpipe/fontpipe/base"
)

// markdown table row: | font name | families | file name | package |
var mdTableRowRE = regexp.MustCompile(`\|\s*[^|]+\s*\|\s*[^|]+\s*\|\s*([^|]+)\s*\|\s*[^|]+\s*\|`)

// ExpectedFonts parses the Microsoft font documentation and returns the set
// of expected font file names, lowercased. Markdown and HTML tables are
// supported, chosen by file extension. A missing file yields an empty set.
func ExpectedFonts(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return parseHTMLFontList(string(data))
	default:
		return parseMarkdownFontList(string(data)), nil
	}
}

func addFontName(fonts map[string]bool, name string) {
	name = strings.TrimSpace(name)
	if name == "" || name == "File Name" || strings.HasPrefix(name, "---") {
		return
	}
	name = strings.ReplaceAll(name, `\_`, "_")
	fonts[strings.ToLower(name)] = true
}

func parseMarkdownFontList(content string) map[string]bool {
	fonts := make(map[string]bool)
	for _, m := range mdTableRowRE.FindAllStringSubmatch(content, -1) {
		addFontName(fonts, m[1])
	}
	return fonts
}

func parseHTMLFontList(content string) (map[string]bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	fonts := make(map[string]bool)
	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		addFontName(fonts, cells.Eq(2).Text())
	})
	base.Logger.Debugf("parsed %d font names from HTML table", len(fonts))
	return fonts, nil
}
