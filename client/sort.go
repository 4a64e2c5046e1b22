package client

import (
	"sort"
	"strings"
	"time"
)

// SortCriterion selects the derived display order of the question feed.
type SortCriterion string

const (
	SortDefault        SortCriterion = "default"
	SortNewest         SortCriterion = "newest"
	SortOldest         SortCriterion = "oldest"
	SortMostReplies    SortCriterion = "most_replies"
	SortRecentActivity SortCriterion = "recent_activity"
	SortAlphabetical   SortCriterion = "alphabetical"
	SortYourQuestions  SortCriterion = "your_questions"
)

// SortCriteria lists every accepted criterion.
var SortCriteria = []SortCriterion{
	SortDefault, SortNewest, SortOldest, SortMostReplies,
	SortRecentActivity, SortAlphabetical, SortYourQuestions,
}

// Valid reports whether s is a known criterion.
func (s SortCriterion) Valid() bool {
	for _, c := range SortCriteria {
		if s == c {
			return true
		}
	}
	return false
}

// creationTime parses the backend's creation_date strings. Unparseable dates
// sort as the zero time rather than failing the whole sort.
func creationTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// latestActivity is the question's own creation time or its newest answer's,
// whichever is later. Questions with no answers use their own creation time.
func latestActivity(q Question, answers []Answer) time.Time {
	latest := creationTime(q.CreationDate)
	for _, a := range answers {
		if t := creationTime(a.CreationDate); t.After(latest) {
			latest = t
		}
	}
	return latest
}

// sortQuestions orders qs in place. Sorting is a pure recomputation over the
// full list: it never refetches and can be re-applied whenever answers finish
// loading. Ties keep their existing relative order (stable sort).
func sortQuestions(qs []Question, answers map[string][]Answer, by SortCriterion, currentUserID string) []Question {
	if by == SortYourQuestions {
		filtered := qs[:0:0]
		for _, q := range qs {
			if q.UserID == currentUserID {
				filtered = append(filtered, q)
			}
		}
		qs = filtered
		by = SortDefault
	}

	switch by {
	case SortOldest:
		sort.SliceStable(qs, func(i, j int) bool {
			return creationTime(qs[i].CreationDate).Before(creationTime(qs[j].CreationDate))
		})
	case SortMostReplies:
		sort.SliceStable(qs, func(i, j int) bool {
			return len(answers[qs[i].QuestionID]) > len(answers[qs[j].QuestionID])
		})
	case SortRecentActivity:
		sort.SliceStable(qs, func(i, j int) bool {
			ai := latestActivity(qs[i], answers[qs[i].QuestionID])
			aj := latestActivity(qs[j], answers[qs[j].QuestionID])
			return ai.After(aj)
		})
	case SortAlphabetical:
		sort.SliceStable(qs, func(i, j int) bool {
			return strings.ToLower(qs[i].QuestionHeader) < strings.ToLower(qs[j].QuestionHeader)
		})
	default: // SortDefault, SortNewest
		sort.SliceStable(qs, func(i, j int) bool {
			return creationTime(qs[i].CreationDate).After(creationTime(qs[j].CreationDate))
		})
	}
	return qs
}
