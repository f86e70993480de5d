package source

import (
	"bufio"
	"fmt"
	"os"
)

// Line is one numbered source line.
type Line struct {
	Number int
	Text   string
}

// Snippet reads the lines around line, radius lines before and after.
func Snippet(file string, line, radius int) ([]Line, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	from, to := line-radius, line+radius
	var lines []Line
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		if n < from {
			continue
		}
		if n > to {
			break
		}
		lines = append(lines, Line{Number: n, Text: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return lines, nil
}

// ReadLine returns a single source line.
func ReadLine(file string, line int) (string, error) {
	lines, err := Snippet(file, line, 0)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("line %d not in %s", line, file)
	}
	return lines[0].Text, nil
}
