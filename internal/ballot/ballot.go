// Package ballot converts the free-text body of one email into zero or
// more vote castings, grounded on original_source/atr/tabulate.py's
// _vote_continue/_vote_break/_vote_castings line classification and
// server/parser/parser.go's line-oriented regex-driven style.
package ballot

import (
	"strings"

	"github.com/apache/trusted-releases/internal/model"
)

// Casting is one classified line from an email body.
type Casting struct {
	Vote model.Vote
	Line string
}

// templateMarkers are instruction-template lines to skip over, never
// treated as a real casting.
var templateMarkers = []string{
	"[ ] +1",
	"[ ] -1",
	"binding +1 votes",
	"binding -1 votes",
}

// Parse walks body line by line and returns the ordered castings found,
// excluding quoted or template lines, stopping at the first
// signature/reply-header/underscore-rule break marker.
func Parse(body string) []Casting {
	var castings []Casting
	for _, line := range strings.Split(body, "\n") {
		if shouldContinue(line) {
			continue
		}
		if shouldBreak(line) {
			break
		}
		if c, ok := classify(line); ok {
			castings = append(castings, c)
		}
	}
	return castings
}

func shouldContinue(line string) bool {
	if strings.HasPrefix(line, ">") {
		return true
	}
	for _, marker := range templateMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func shouldBreak(line string) bool {
	if line == "-- " {
		return true
	}
	if strings.HasPrefix(line, "On ") && len(line) >= 8 && line[6:8] == ", " {
		return true
	}
	if strings.HasPrefix(line, "From: ") {
		return true
	}
	if strings.HasPrefix(line, "________") {
		return true
	}
	return false
}

func classify(line string) (Casting, bool) {
	isPlus := strings.HasPrefix(line, "+1") || strings.Contains(line, " +1")
	isMinus := strings.HasPrefix(line, "-1") || strings.Contains(line, " -1")
	isZero := line == "0" || line == "-0" || line == "+0" ||
		strings.HasPrefix(line, "0 ") || strings.HasPrefix(line, "+0 ") || strings.HasPrefix(line, "-0 ")

	count := 0
	if isPlus {
		count++
	}
	if isMinus {
		count++
	}
	if isZero {
		count++
	}
	if count != 1 {
		return Casting{}, false
	}

	switch {
	case isPlus:
		return Casting{Vote: model.VoteYes, Line: line}, true
	case isMinus:
		return Casting{Vote: model.VoteNo, Line: line}, true
	default:
		return Casting{Vote: model.VoteAbstain, Line: line}, true
	}
}

// Aggregate collapses one email's castings into a single vote: the sole
// casting if there is exactly one, else UNKNOWN with all casting lines
// joined by " // ". A message with no castings yields ok=false.
func Aggregate(castings []Casting) (vote model.Vote, quotation string, ok bool) {
	switch len(castings) {
	case 0:
		return "", "", false
	case 1:
		return castings[0].Vote, castings[0].Line, true
	default:
		lines := make([]string, len(castings))
		for i, c := range castings {
			lines[i] = c.Line
		}
		return model.VoteUnknown, strings.Join(lines, " // "), true
	}
}
