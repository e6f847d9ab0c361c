// Package blocktext converts between plain-text email bodies and template
// content blocks.
//
// The text form is a small markdown subset, one construct per line:
//
//	# Heading          heading block
//	---                divider block
//	[Label]            button block
//	![alt](url)        image block, content is the url
//
// Any other run of lines is a text block and may contain single blank lines.
// A run of n+1 blank lines (n >= 1) ends the text block and stands for n
// spacer blocks. A line starting with a backslash is always text: the
// backslash is dropped, so `\# not a heading` reads as "# not a heading" and
// a lone `\` is an empty line inside a text block.
package blocktext

import (
	"regexp"
	"strings"

	"github.com/rcliao/openats/internal/model"
)

const escape = `\`

var (
	buttonRe = regexp.MustCompile(`^\[([^\]]+)\]$`)
	imageRe  = regexp.MustCompile(`^!\[[^\]]*\]\(([^)\s]+)\)$`)
)

// Parse splits text into content blocks in reading order. Block ids are left
// empty for the store to assign.
func Parse(text string) []model.Block {
	text = strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := strings.Split(text, "\n")
	blocks := []model.Block{}
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		t := strings.TrimSpace(strings.Join(current, "\n"))
		if t != "" {
			blocks = append(blocks, model.Block{Kind: model.BlockText, Content: t})
		}
		current = nil
	}

	blank := 0
	endBlankRun := func() {
		switch {
		case blank >= 2:
			flush()
			for i := 1; i < blank; i++ {
				blocks = append(blocks, model.Block{Kind: model.BlockSpacer})
			}
		case blank == 1 && len(current) > 0:
			current = append(current, "")
		}
		blank = 0
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blank++
			continue
		}
		endBlankRun()

		if strings.HasPrefix(trimmed, escape) {
			current = append(current, strings.TrimRight(strings.Replace(line, escape, "", 1), " \t"))
			continue
		}
		if b, ok := single(trimmed); ok {
			flush()
			blocks = append(blocks, b)
			continue
		}
		current = append(current, strings.TrimRight(line, " \t"))
	}
	endBlankRun()
	flush()
	return blocks
}

// single recognizes the one-line constructs.
func single(line string) (model.Block, bool) {
	switch {
	case strings.HasPrefix(line, "#"):
		return model.Block{Kind: model.BlockHeading, Content: strings.TrimSpace(strings.TrimLeft(line, "#"))}, true
	case isRule(line):
		return model.Block{Kind: model.BlockDivider}, true
	}
	if m := imageRe.FindStringSubmatch(line); m != nil {
		return model.Block{Kind: model.BlockImage, Content: m[1]}, true
	}
	if m := buttonRe.FindStringSubmatch(line); m != nil {
		return model.Block{Kind: model.BlockButton, Content: strings.TrimSpace(m[1])}, true
	}
	return model.Block{}, false
}

func isRule(line string) bool {
	if len(line) < 3 {
		return false
	}
	c := line[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	return strings.Count(line, string(c)) == len(line)
}

// Format renders blocks in the text form read by Parse.
//
// Parse(Format(b)) gives back b with ids cleared when b is canonical: no two
// text blocks are adjacent; text content is non-empty, has no surrounding
// whitespace and no trailing spaces on its lines; heading and button content
// is a trimmed single line (headings not starting with '#', buttons without
// ']'); image content is a url without spaces or ')'; dividers and spacers
// have no content.
func Format(blocks []model.Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		switch b.Kind {
		case model.BlockSpacer:
			if i == 0 || blocks[i-1].Kind != model.BlockSpacer {
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		case model.BlockHeading:
			sb.WriteString("# " + b.Content + "\n")
		case model.BlockDivider:
			sb.WriteString("---\n")
		case model.BlockButton:
			sb.WriteString("[" + b.Content + "]\n")
		case model.BlockImage:
			sb.WriteString("![](" + b.Content + ")\n")
		default:
			writeText(&sb, b.Content)
		}
	}
	return sb.String()
}

// writeText escapes lines Parse would otherwise read as a construct, an
// escape, or part of a spacer run.
func writeText(sb *strings.Builder, content string) {
	prevBlank := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			if prevBlank {
				line = escape
			}
			prevBlank = true
		case strings.HasPrefix(trimmed, escape):
			line = escape + line
			prevBlank = false
		default:
			if _, ok := single(trimmed); ok {
				line = escape + line
			}
			prevBlank = false
		}
		sb.WriteString(line + "\n")
	}
}
