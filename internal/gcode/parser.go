package gcode

import (
	"regexp"
	"strconv"
	"strings"
)

// MoveType classifies a parsed motion command.
type MoveType int

const (
	MoveRapid   MoveType = iota // G0 positioning
	MoveFeed                    // G1 with X movement
	MovePlunge                  // Z going down without X movement
	MoveRetract                 // Z going up
)

func (t MoveType) String() string {
	switch t {
	case MoveFeed:
		return "feed"
	case MovePlunge:
		return "plunge"
	case MoveRetract:
		return "retract"
	default:
		return "rapid"
	}
}

// Move is one G0/G1 command with the absolute position before and after.
type Move struct {
	Line     int // 1-based line in the program
	Type     MoveType
	FromX    float64
	FromZ    float64
	ToX      float64
	ToZ      float64
	FeedRate float64
}

var coordRe = regexp.MustCompile(`([XZF])(-?\d+\.?\d*)`)

// Parse reads the G0/G1 moves of a program in absolute mode. Comments in
// semicolon or parenthesis form are ignored, as are all other commands.
func Parse(code string) []Move {
	var (
		moves            []Move
		curX, curZ, feed float64
	)
	for n, line := range strings.Split(code, "\n") {
		line = stripComment(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		word := strings.Fields(upper)[0]
		rapid := word == "G0" || word == "G00"
		if !rapid && word != "G1" && word != "G01" {
			continue
		}

		toX, toZ, toFeed := curX, curZ, feed
		for _, m := range coordRe.FindAllStringSubmatch(upper, -1) {
			val, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			switch m[1] {
			case "X":
				toX = val
			case "Z":
				toZ = val
			case "F":
				toFeed = val
			}
		}

		moves = append(moves, Move{
			Line:     n + 1,
			Type:     classifyMove(rapid, curX, curZ, toX, toZ),
			FromX:    curX,
			FromZ:    curZ,
			ToX:      toX,
			ToZ:      toZ,
			FeedRate: toFeed,
		})
		curX, curZ, feed = toX, toZ, toFeed
	}
	return moves
}

func stripComment(line string) string {
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = line[:idx]
	}
	for {
		start := strings.Index(line, "(")
		if start < 0 {
			break
		}
		end := strings.Index(line[start:], ")")
		if end < 0 {
			line = line[:start]
			break
		}
		line = line[:start] + line[start+end+1:]
	}
	return strings.TrimSpace(line)
}

func classifyMove(rapid bool, fromX, fromZ, toX, toZ float64) MoveType {
	dz := toZ - fromZ
	moved := fromX != toX
	switch {
	case dz > 0.001:
		return MoveRetract
	case rapid:
		return MoveRapid
	case dz < -0.001 && !moved:
		return MovePlunge
	default:
		return MoveFeed
	}
}
