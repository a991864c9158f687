package markdown

import (
	"bytes"
)

// SplitFrontMatter separates a leading YAML front matter block delimited by "---".
// The returned body keeps one empty line per removed line so positions stay valid.
func SplitFrontMatter(src []byte) (frontMatter string, body []byte) {
	src = bytes.TrimPrefix(src, []byte("\xef\xbb\xbf"))
	lines := bytes.SplitAfter(src, []byte("\n"))
	if len(lines) == 0 || trimEOL(lines[0]) != "---" {
		return "", src
	}
	for i := 1; i < len(lines); i++ {
		l := trimEOL(lines[i])
		if l != "---" && l != "..." {
			continue
		}
		var fm bytes.Buffer
		for _, line := range lines[1:i] {
			fm.Write(line)
		}
		out := bytes.Repeat([]byte("\n"), i+1)
		for _, line := range lines[i+1:] {
			out = append(out, line...)
		}
		return fm.String(), out
	}
	return "", src
}

func trimEOL(b []byte) string {
	return string(bytes.TrimRight(b, "\r\n"))
}
