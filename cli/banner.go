package cli

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerMiddle  = "─"
	dividerRight   = "┨"
	ellipsis       = "…"
)

// Banner alignments.
const (
	AlignLeft = iota
	AlignCenter
	AlignRight

	bannerPadding   = 2
	dividerPadding  = 2
	truncateReserve = 1
	halfDivisor     = 2
)

// DefaultBannerWidth is the width used for text output headers.
const DefaultBannerWidth = 60

// Divider returns a horizontal rule of the given width.
func Divider(width int) string {
	if width < dividerPadding {
		return ""
	}

	return fmt.Sprintf("%s%s%s\n", dividerLeft, strings.Repeat(dividerMiddle, width-dividerPadding), dividerRight)
}

// Banner boxes s, one row per line, padded or truncated to width.
// It returns "" for a non-positive width or unknown alignment.
func Banner(s string, width int, alignment int) string {
	if width <= bannerPadding {
		return ""
	}

	lines := getLines(s)
	inner := width - bannerPadding

	parts := []string{boxTopLeft + strings.Repeat(boxTop, inner) + boxTopRight}

	for _, l := range lines {
		var line string

		switch alignment {
		case AlignCenter:
			line = pad(l, inner, halfDivisor)
		case AlignLeft:
			line = pad(l, inner, 0)
		case AlignRight:
			line = pad(l, inner, 1)
		default:
			return ""
		}

		parts = append(parts, boxSide+line+boxSide)
	}

	parts = append(parts, boxBottomLeft+strings.Repeat(boxBottom, inner)+boxBottomRight)

	return strings.Join(parts, "\n") + "\n"
}

func getLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	return strings.Split(s, "\n")
}

func countGraphic(s string) int {
	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}
	}

	return count
}

func truncateGraphic(s string, n int) (string, int) {
	var sb strings.Builder

	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}

		if count > n {
			count = n

			break
		}

		sb.WriteRune(r)
	}

	return sb.String(), count
}

// pad fits text into width. divisor selects where the slack goes: 0 puts
// it all on the right, 1 all on the left, 2 splits it.
func pad(text string, width int, divisor int) string {
	length := countGraphic(text)

	str := text
	if length > width {
		str, length = truncateGraphic(str, width-truncateReserve)
		str += ellipsis
		length++
	}

	diff := width - length

	var left int

	switch divisor {
	case 0:
		left = 0
	case 1:
		left = diff
	default:
		left = diff / divisor
	}

	return strings.Repeat(" ", left) + str + strings.Repeat(" ", diff-left)
}
