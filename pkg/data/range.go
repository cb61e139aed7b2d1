package data

import (
	"fmt"
	"strings"
)

// RangeExpression is an inclusive span of chapters by name. A single chapter has Start == End.
type RangeExpression struct {
	Start string
	End   string
}

// SingleChapter returns the expression selecting only name.
func SingleChapter(name string) RangeExpression {
	return RangeExpression{Start: name, End: name}
}

// ParseRange parses "<name>" or "<start>-<end>".
func ParseRange(expr string) (RangeExpression, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return RangeExpression{}, fmt.Errorf("%w: empty expression", ErrInvalidRange)
	}

	parts := strings.Split(expr, "-")
	switch len(parts) {
	case 1:
		return SingleChapter(expr), nil
	case 2:
		start := strings.TrimSpace(parts[0])
		end := strings.TrimSpace(parts[1])
		if start == "" || end == "" {
			return RangeExpression{}, fmt.Errorf("%w: %q needs both a start and an end", ErrInvalidRange, expr)
		}
		return RangeExpression{Start: start, End: end}, nil
	default:
		return RangeExpression{}, fmt.Errorf("%w: %q has more than one '-'", ErrInvalidRange, expr)
	}
}

func (r RangeExpression) IsEmpty() bool {
	return r.Start == "" && r.End == ""
}

func (r RangeExpression) IsSingle() bool {
	return r.Start == r.End
}

func (r RangeExpression) String() string {
	if r.IsSingle() {
		return r.Start
	}
	return r.Start + "-" + r.End
}
