package ingestion

import (
	"regexp"
	"strings"
)

var (
	innerSpace  = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes scraped job description text: CRLF and CR become LF, runs of spaces
// collapse to one, trailing whitespace is dropped, at most one blank line separates blocks.
// Leading indentation and Markdown headings and bullets are kept.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	out := blankLineRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func cleanLine(line string) string {
	body := strings.TrimLeft(line, " \t")
	if strings.TrimSpace(body) == "" {
		return ""
	}
	indent := line[:len(line)-len(body)]
	if strings.HasPrefix(body, "#") {
		indent = ""
	}
	return strings.ReplaceAll(indent, "\t", " ") + innerSpace.ReplaceAllString(strings.TrimRight(body, " \t"), " ")
}
