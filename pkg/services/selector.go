package services

import "github.com/CknightX/CopyMangaDownloader/pkg/data"

type scanState int

const (
	stateBefore scanState = iota
	stateInRange
	stateDone
)

func (s scanState) String() string {
	switch s {
	case stateBefore:
		return "before"
	case stateInRange:
		return "in-range"
	default:
		return "done"
	}
}

// nextState advances the range scan by one chapter and reports whether that chapter is selected.
// The first occurrence of either boundary wins: seeing the end name before the start name ends
// the scan with nothing selected.
func nextState(state scanState, name string, expr data.RangeExpression) (scanState, bool) {
	switch state {
	case stateBefore:
		if name == expr.Start {
			if name == expr.End {
				return stateDone, true
			}
			return stateInRange, true
		}
		if name == expr.End {
			return stateDone, false
		}
		return stateBefore, false
	case stateInRange:
		if name == expr.End {
			return stateDone, true
		}
		return stateInRange, true
	default:
		return stateDone, false
	}
}

// SelectRange returns the chapters covered by expr, in catalog order.
func SelectRange(chapters []data.Chapter, expr data.RangeExpression) []data.Chapter {
	selected := []data.Chapter{}
	state := stateBefore
	for _, ch := range chapters {
		var include bool
		state, include = nextState(state, ch.Name, expr)
		if include {
			selected = append(selected, ch)
		}
		if state == stateDone {
			break
		}
	}
	return selected
}

// FindChapter looks a chapter up by exact name.
func FindChapter(chapters []data.Chapter, name string) (data.Chapter, bool) {
	for _, ch := range chapters {
		if ch.Name == name {
			return ch, true
		}
	}
	return data.Chapter{}, false
}
