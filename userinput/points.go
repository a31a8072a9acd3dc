package userinput

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadPointsFile reads one "x,y" pair per line. Blank lines and lines
// starting with '#' are ignored.
func ReadPointsFile(path string) ([][2]int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("userinput: open points: %w", err)
	}
	defer f.Close()

	var points [][2]int32
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		xs, ys, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("userinput: %s:%d: expected x,y", path, line)
		}
		x, err := strconv.ParseInt(strings.TrimSpace(xs), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("userinput: %s:%d: %w", path, line, err)
		}
		y, err := strconv.ParseInt(strings.TrimSpace(ys), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("userinput: %s:%d: %w", path, line, err)
		}
		points = append(points, [2]int32{int32(x), int32(y)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("userinput: read points: %w", err)
	}
	return points, nil
}
