package segment

import (
	"strings"

	"github.com/inful/mdfp"
)

// SplitFrontmatter separates leading YAML frontmatter (`---` delimited) from
// the markdown body. bodyOffset is the byte position of the body within the
// original content, so scene offsets stay valid against the full file.
func SplitFrontmatter(content string) (frontmatter, body string, bodyOffset int) {
	nl := "\n"
	if strings.HasPrefix(content, "---\r\n") {
		nl = "\r\n"
	} else if !strings.HasPrefix(content, "---\n") {
		return "", content, 0
	}

	open := "---" + nl
	rest := content[len(open):]

	closeSeq := nl + "---" + nl
	if strings.HasPrefix(rest, "---"+nl) {
		bodyOffset = len(open) + len("---"+nl)
		return "", content[bodyOffset:], bodyOffset
	}
	idx := strings.Index(rest, closeSeq)
	if idx < 0 {
		// Unterminated frontmatter is treated as plain body text.
		return "", content, 0
	}

	frontmatter = rest[:idx+len(nl)]
	bodyOffset = len(open) + idx + len(closeSeq)
	return frontmatter, content[bodyOffset:], bodyOffset
}

// ManuscriptFingerprint computes the canonical whole-file fingerprint used to
// tag history entries. Frontmatter and body hash as separate parts so body
// edits and metadata edits stay distinguishable upstream.
func ManuscriptFingerprint(content string) string {
	fm, body, _ := SplitFrontmatter(content)
	fm = strings.TrimSuffix(strings.TrimSuffix(fm, "\n"), "\r")
	return mdfp.CalculateFingerprintFromParts(fm, body)
}
