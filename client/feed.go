package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/socialsense/socialsense-go/client/internal/store"
)

// Feed is the in-memory, sorted view of questions and their answers. It
// reconciles three inputs: full refetch (Load), optimistic local inserts
// (PostQuestion/PostReply), and optimistic local deletes. Mutations land in
// the view immediately after the backend confirms them, without a refetch.
type Feed struct {
	c *Client

	mu            sync.RWMutex
	currentUserID string
	questions     []Question // current display order
	answers       map[string][]Answer
	sortBy        SortCriterion
	showMine      bool
	expanded      map[string]bool
}

// feedFilter is the persisted slice of UI preference state.
type feedFilter struct {
	SortBy          SortCriterion `json:"sort_by"`
	ShowMyQuestions bool          `json:"show_my_questions"`
}

// NewFeed returns an empty feed. Call Load before reading.
func (c *Client) NewFeed() *Feed {
	return &Feed{
		c:        c,
		answers:  make(map[string][]Answer),
		expanded: make(map[string]bool),
		sortBy:   SortDefault,
	}
}

// Load fetches the question collection for the active scope and every
// question's answer list. Answer fetches run concurrently and fail
// independently: one question's failure degrades to an empty answer list
// without touching its siblings. Any auth-class failure aborts the whole
// load with ErrReauthRequired.
func (f *Feed) Load(ctx context.Context) error {
	if !f.c.IsLoggedIn(ctx) {
		return ErrReauthRequired
	}

	f.mu.RLock()
	showMine := f.showMine
	f.mu.RUnlock()

	var (
		qs  []Question
		err error
	)
	if showMine {
		qs, err = f.c.MyQuestions(ctx)
	} else {
		qs, err = f.c.Questions(ctx)
	}
	if err != nil {
		if IsAuthError(err) {
			return fmt.Errorf("%w: %v", ErrReauthRequired, err)
		}
		return err
	}

	answers := make([][]Answer, len(qs))
	errs := make([]error, len(qs))
	var wg sync.WaitGroup
	for i := range qs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			answers[i], errs[i] = f.c.QuestionAnswers(ctx, qs[i].QuestionID)
		}(i)
	}
	wg.Wait()

	answerMap := make(map[string][]Answer, len(qs))
	for i, q := range qs {
		if errs[i] != nil {
			if IsAuthError(errs[i]) {
				return fmt.Errorf("%w: %v", ErrReauthRequired, errs[i])
			}
			log.Warn().Err(errs[i]).Str("question_id", q.QuestionID).Msg("answers unavailable, using empty list")
			answerMap[q.QuestionID] = []Answer{}
			continue
		}
		answerMap[q.QuestionID] = answers[i]
	}

	uid := ""
	if u, ok, uerr := f.c.storedUser(ctx); uerr == nil && ok {
		uid = u.ID
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentUserID = uid
	f.questions = qs
	f.answers = answerMap
	f.resortLocked()
	return nil
}

// PostQuestion creates a question and prepends it to the view with an empty
// answer list. The insertion point ignores the active sort; the next sort
// recompute corrects it.
func (f *Feed) PostQuestion(ctx context.Context, title, body string) (*Question, error) {
	if !f.c.IsLoggedIn(ctx) {
		return nil, ErrReauthRequired
	}
	q, err := f.c.PostQuestion(ctx, title, body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append([]Question{*q}, f.questions...)
	f.answers[q.QuestionID] = []Answer{}
	return q, nil
}

// PostReply creates an answer and appends it to its question's list.
func (f *Feed) PostReply(ctx context.Context, questionID, body string) (*Answer, error) {
	if !f.c.IsLoggedIn(ctx) {
		return nil, ErrReauthRequired
	}
	a, err := f.c.PostReply(ctx, questionID, body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers[questionID] = append(f.answers[questionID], *a)
	return a, nil
}

// DeleteQuestion removes the question and its entire answer list from the
// view after the backend confirms the delete.
func (f *Feed) DeleteQuestion(ctx context.Context, questionID string) error {
	if !f.c.IsLoggedIn(ctx) {
		return ErrReauthRequired
	}
	if err := f.c.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.questions[:0]
	for _, q := range f.questions {
		if q.QuestionID != questionID {
			kept = append(kept, q)
		}
	}
	f.questions = kept
	delete(f.answers, questionID)
	delete(f.expanded, questionID)
	return nil
}

// DeleteAnswer removes a single answer from its parent's list after a
// confirmed backend delete.
func (f *Feed) DeleteAnswer(ctx context.Context, questionID, answerID string) error {
	if !f.c.IsLoggedIn(ctx) {
		return ErrReauthRequired
	}
	if err := f.c.DeleteAnswer(ctx, answerID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	as := f.answers[questionID]
	kept := as[:0]
	for _, a := range as {
		if a.AnswerID != answerID {
			kept = append(kept, a)
		}
	}
	f.answers[questionID] = kept
	return nil
}

// ApplySort recomputes the display order under the given criterion without
// refetching. Selecting your_questions turns the show-mine scope off; the
// two filters are mutually exclusive, last write wins.
func (f *Feed) ApplySort(ctx context.Context, by SortCriterion) error {
	if !by.Valid() {
		return fmt.Errorf("unknown sort criterion %q", by)
	}
	f.mu.Lock()
	f.sortBy = by
	if by == SortYourQuestions {
		f.showMine = false
	}
	f.resortLocked()
	f.mu.Unlock()
	f.persistFilter(ctx)
	return nil
}

// SetShowMine switches the fetch scope between all questions and the
// caller's own. Enabling it clears a your_questions sort, its local-filter
// counterpart. Takes effect on the next Load.
func (f *Feed) SetShowMine(ctx context.Context, mine bool) {
	f.mu.Lock()
	f.showMine = mine
	if mine && f.sortBy == SortYourQuestions {
		f.sortBy = SortDefault
		f.resortLocked()
	}
	f.mu.Unlock()
	f.persistFilter(ctx)
}

// SortBy returns the active sort criterion.
func (f *Feed) SortBy() SortCriterion {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sortBy
}

// ShowMine reports whether the feed loads only the caller's questions.
func (f *Feed) ShowMine() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.showMine
}

// Questions returns the questions in display order. Under your_questions the
// view is filtered strictly to the current user's questions.
func (f *Feed) Questions() []Question {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Question, 0, len(f.questions))
	for _, q := range f.questions {
		if f.sortBy == SortYourQuestions && q.UserID != f.currentUserID {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Answers returns the answer list for a question, empty once the question is
// gone.
func (f *Feed) Answers(questionID string) []Answer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Answer(nil), f.answers[questionID]...)
}

// ToggleExpanded flips a question's reply-expansion flag and returns the new
// state.
func (f *Feed) ToggleExpanded(questionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expanded[questionID] = !f.expanded[questionID]
	return f.expanded[questionID]
}

// Expanded reports whether a question's replies are expanded.
func (f *Feed) Expanded(questionID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.expanded[questionID]
}

// RestoreFilter re-applies the persisted sort/scope preference.
func (f *Feed) RestoreFilter(ctx context.Context) {
	raw, ok, err := f.c.store.Get(ctx, store.KeyForumFilter)
	if err != nil || !ok {
		return
	}
	var ff feedFilter
	if err := json.Unmarshal([]byte(raw), &ff); err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if ff.SortBy.Valid() {
		f.sortBy = ff.SortBy
	}
	f.showMine = ff.ShowMyQuestions
	if f.sortBy == SortYourQuestions {
		f.showMine = false
	}
	f.resortLocked()
}

func (f *Feed) persistFilter(ctx context.Context) {
	f.mu.RLock()
	ff := feedFilter{SortBy: f.sortBy, ShowMyQuestions: f.showMine}
	f.mu.RUnlock()
	b, err := json.Marshal(ff)
	if err != nil {
		return
	}
	if err := f.c.store.Set(ctx, store.KeyForumFilter, string(b)); err != nil {
		log.Warn().Err(err).Msg("persisting forum filter preference")
	}
}

// resortLocked reorders the stored slice. your_questions keeps default
// ordering here; its filtering happens at read time so switching criteria
// never loses questions.
func (f *Feed) resortLocked() {
	by := f.sortBy
	if by == SortYourQuestions {
		by = SortDefault
	}
	sortQuestions(f.questions, f.answers, by, f.currentUserID)
}
