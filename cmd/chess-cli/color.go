package main

import "strings"

const (
	ansiReset = "\x1b[0m"
	ansiWhite = "\x1b[1;97m"
	ansiBlack = "\x1b[1;31m"
	ansiMark  = "\x1b[32m"
)

// colorizeBoard colours piece letters on lines of the text board, which start
// with a rank digit.
func colorizeBoard(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if len(line) < 2 || line[0] < '1' || line[0] > '8' || line[1] != ' ' {
			continue
		}
		var sb strings.Builder
		sb.WriteString(line[:2])
		for _, r := range line[2:] {
			switch {
			case r >= 'A' && r <= 'Z':
				sb.WriteString(ansiWhite + string(r) + ansiReset)
			case r >= 'a' && r <= 'z':
				sb.WriteString(ansiBlack + string(r) + ansiReset)
			case r == '*' || r == '[' || r == ']':
				sb.WriteString(ansiMark + string(r) + ansiReset)
			default:
				sb.WriteRune(r)
			}
		}
		lines[i] = sb.String()
	}
	return strings.Join(lines, "\n")
}
