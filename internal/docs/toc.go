package docs

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
)

// TOCHeader titles the page outline.
const TOCHeader = "On This Page"

type TOCItem struct {
	ID     string `json:"id"`
	Value  string `json:"value"`
	Level  int    `json:"level"`
	Nested bool   `json:"nested"`
}

var (
	headingLine = regexp.MustCompile(`^(#{2,3})\s+(.+?)\s*#*\s*$`)
	inlineMark  = regexp.MustCompile("[`*_]")
	nonAlnum    = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// ExtractTOC collects the h2 and h3 headings of a markdown page, skipping
// fenced code. h3 entries are nested under the preceding h2.
func ExtractTOC(markdown string) []TOCItem {
	var items []TOCItem
	seen := map[string]int{}
	inFence := false
	sc := bufio.NewScanner(strings.NewReader(markdown))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := inlineMark.ReplaceAllString(m[2], "")
		id := Anchor(text)
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s-%d", id, n)
		} else {
			seen[id] = 1
		}
		level := len(m[1])
		items = append(items, TOCItem{ID: id, Value: text, Level: level, Nested: level == 3})
	}
	return items
}

// Anchor is the kebab-case fragment id for a heading.
func Anchor(text string) string {
	return strcase.ToKebab(strings.TrimSpace(nonAlnum.ReplaceAllString(text, " ")))
}
