package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

var feedQuestions = []Question{
	{QuestionID: "q-1", UserID: "u-1", Username: "ada", QuestionHeader: "Oldest", Question: "first", CreationDate: "2024-01-01T00:00:00Z"},
	{QuestionID: "q-2", UserID: "u-2", Username: "bob", QuestionHeader: "Middle", Question: "second", CreationDate: "2024-02-01T00:00:00Z"},
	{QuestionID: "q-3", UserID: "u-1", Username: "ada", QuestionHeader: "Newest", Question: "third", CreationDate: "2024-03-01T00:00:00Z"},
}

var feedAnswers = map[string][]Answer{
	"q-1": {
		{AnswerID: "a-1", QuestionID: "q-1", UserID: "u-2", Answer: "one", CreationDate: "2024-01-02T00:00:00Z"},
		{AnswerID: "a-2", QuestionID: "q-1", UserID: "u-1", Answer: "two", CreationDate: "2024-04-01T00:00:00Z"},
	},
	"q-2": {
		{AnswerID: "a-3", QuestionID: "q-2", UserID: "u-1", Answer: "three", CreationDate: "2024-02-02T00:00:00Z"},
	},
	"q-3": {},
}

// forumServer serves the endpoints Feed.Load touches. answerStatus can force
// a failure for a specific question's answer list.
func forumServer(t *testing.T, answerStatus map[string]int) func(w http.ResponseWriter, r *http.Request) bool {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) bool {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/forum/question/all":
			_ = json.NewEncoder(w).Encode(feedQuestions)
			return true
		case r.Method == http.MethodGet && r.URL.Path == "/forum/my-questions/":
			var mine []Question
			for _, q := range feedQuestions {
				if q.UserID == testUser.ID {
					mine = append(mine, q)
				}
			}
			_ = json.NewEncoder(w).Encode(mine)
			return true
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/forum/question/") && strings.HasSuffix(r.URL.Path, "/answers"):
			qid := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/forum/question/"), "/answers")
			if status, ok := answerStatus[qid]; ok {
				w.WriteHeader(status)
				return true
			}
			_ = json.NewEncoder(w).Encode(feedAnswers[qid])
			return true
		}
		return false
	}
}

func loadedFeed(t *testing.T, answerStatus map[string]int) *Feed {
	t.Helper()
	srv := authServer(t, forumServer(t, answerStatus))
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")

	f := c.NewFeed()
	if err := f.Load(context.Background()); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return f
}

func TestFeedLoad_FetchesQuestionsAndAnswers(t *testing.T) {
	f := loadedFeed(t, nil)

	qs := f.Questions()
	if len(qs) != 3 {
		t.Fatalf("loaded %d questions, want 3", len(qs))
	}
	// Default sort: newest first.
	if qs[0].QuestionID != "q-3" || qs[2].QuestionID != "q-1" {
		t.Fatalf("unexpected default order %v", ids(qs))
	}
	if len(f.Answers("q-1")) != 2 || len(f.Answers("q-2")) != 1 || len(f.Answers("q-3")) != 0 {
		t.Fatal("answer lists not loaded per question")
	}
}

func TestFeedLoad_PartialAnswerFailureDegradesToEmpty(t *testing.T) {
	f := loadedFeed(t, map[string]int{"q-1": http.StatusInternalServerError})

	if len(f.Questions()) != 3 {
		t.Fatal("a single answer failure must not drop questions")
	}
	if got := f.Answers("q-1"); len(got) != 0 {
		t.Fatalf("failed answer fetch yielded %v, want empty", got)
	}
	if len(f.Answers("q-2")) != 1 {
		t.Fatal("sibling answer fetch was disturbed")
	}
}

func TestFeedLoad_AuthFailureSignalsReauth(t *testing.T) {
	srv := authServer(t, func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Path == "/forum/question/all" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"token expired"}`))
			return true
		}
		if r.URL.Path == "/auth/refresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return true
		}
		return false
	})
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")

	err := c.NewFeed().Load(context.Background())
	if !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("want ErrReauthRequired, got %v", err)
	}
}

func TestFeedLoad_NotLoggedIn(t *testing.T) {
	srv := authServer(t, nil)
	c, _ := newTestClient(t, srv)

	err := c.NewFeed().Load(context.Background())
	if !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("want ErrReauthRequired, got %v", err)
	}
}

func TestFeedLoad_ServerErrorYieldsEmptyList(t *testing.T) {
	srv := authServer(t, func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Path == "/forum/question/all" {
			w.WriteHeader(http.StatusInternalServerError)
			return true
		}
		return false
	})
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")

	f := c.NewFeed()
	if err := f.Load(context.Background()); err != nil {
		t.Fatalf("500 on list must not fail the load: %v", err)
	}
	if len(f.Questions()) != 0 {
		t.Fatal("expected empty question list")
	}
}

func TestFeedPostQuestion_PrependsWithEmptyAnswerList(t *testing.T) {
	posted := Question{QuestionID: "q-new", UserID: "u-1", QuestionHeader: "Brand new", Question: "hello", CreationDate: "2023-01-01T00:00:00Z"}
	srv := authServer(t, func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method == http.MethodPost && r.URL.Path == "/forum/question/" {
			var req createQuestionRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.QuestionHeader != "Brand new" {
				t.Errorf("posted header %q", req.QuestionHeader)
			}
			_ = json.NewEncoder(w).Encode(&posted)
			return true
		}
		return forumServer(t, nil)(w, r)
	})
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")

	f := c.NewFeed()
	ctx := context.Background()
	if err := f.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.PostQuestion(ctx, "  Brand new  ", "hello"); err != nil {
		t.Fatalf("PostQuestion error: %v", err)
	}

	qs := f.Questions()
	// Index 0 despite the oldest creation date: insertion ignores the sort
	// until the next recompute.
	if qs[0].QuestionID != "q-new" {
		t.Fatalf("new question at %v, want index 0", ids(qs))
	}
	if got := f.Answers("q-new"); got == nil || len(got) != 0 {
		t.Fatal("new question must start with an empty, non-nil answer list")
	}

	// The next recompute moves it where the sort says.
	if err := f.ApplySort(ctx, SortNewest); err != nil {
		t.Fatal(err)
	}
	qs = f.Questions()
	if qs[len(qs)-1].QuestionID != "q-new" {
		t.Fatalf("after resort got %v, want q-new last", ids(qs))
	}
}

func TestFeedPostQuestion_EmptyTitleRejectedLocally(t *testing.T) {
	f := loadedFeed(t, nil)
	_, err := f.PostQuestion(context.Background(), "   ", "body")
	if !IsValidationError(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestFeedPostReply_AppendsToQuestion(t *testing.T) {
	reply := Answer{AnswerID: "a-new", QuestionID: "q-2", UserID: "u-1", Answer: "appended", CreationDate: "2024-05-01T00:00:00Z"}
	srv := authServer(t, func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method == http.MethodPost && r.URL.Path == "/forum/answer/" {
			_ = json.NewEncoder(w).Encode(&reply)
			return true
		}
		return forumServer(t, nil)(w, r)
	})
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")

	f := c.NewFeed()
	ctx := context.Background()
	if err := f.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.PostReply(ctx, "q-2", "appended"); err != nil {
		t.Fatalf("PostReply error: %v", err)
	}
	as := f.Answers("q-2")
	if len(as) != 2 || as[1].AnswerID != "a-new" {
		t.Fatalf("unexpected answers %+v", as)
	}
}

func TestFeedDeleteQuestion_RemovesQuestionAndAnswers(t *testing.T) {
	srv := authServer(t, func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method == http.MethodDelete && r.URL.Path == "/forum/question/q-1" {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
			return true
		}
		return forumServer(t, nil)(w, r)
	})
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")

	f := c.NewFeed()
	ctx := context.Background()
	if err := f.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.DeleteQuestion(ctx, "q-1"); err != nil {
		t.Fatalf("DeleteQuestion error: %v", err)
	}
	for _, q := range f.Questions() {
		if q.QuestionID == "q-1" {
			t.Fatal("deleted question still in view")
		}
	}
	if got := f.Answers("q-1"); len(got) != 0 {
		t.Fatalf("orphaned answers survived: %+v", got)
	}
}

func TestFeedDeleteAnswer_RemovesSingleAnswer(t *testing.T) {
	srv := authServer(t, func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method == http.MethodDelete && r.URL.Path == "/forum/answer/a-1" {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
			return true
		}
		return forumServer(t, nil)(w, r)
	})
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")

	f := c.NewFeed()
	ctx := context.Background()
	if err := f.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.DeleteAnswer(ctx, "q-1", "a-1"); err != nil {
		t.Fatalf("DeleteAnswer error: %v", err)
	}
	as := f.Answers("q-1")
	if len(as) != 1 || as[0].AnswerID != "a-2" {
		t.Fatalf("unexpected answers %+v", as)
	}
}

func TestFeedSort_YourQuestionsFiltersToCurrentUser(t *testing.T) {
	f := loadedFeed(t, nil)
	ctx := context.Background()

	if err := f.ApplySort(ctx, SortYourQuestions); err != nil {
		t.Fatal(err)
	}
	qs := f.Questions()
	if len(qs) != 2 {
		t.Fatalf("filtered to %d questions, want 2", len(qs))
	}
	for _, q := range qs {
		if q.UserID != testUser.ID {
			t.Fatalf("foreign question %s in your_questions view", q.QuestionID)
		}
	}
}

func TestFeedSort_MutualExclusionLastWriteWins(t *testing.T) {
	f := loadedFeed(t, nil)
	ctx := context.Background()

	f.SetShowMine(ctx, true)
	if err := f.ApplySort(ctx, SortYourQuestions); err != nil {
		t.Fatal(err)
	}
	if f.ShowMine() {
		t.Fatal("your_questions sort must switch show-mine off")
	}

	f.SetShowMine(ctx, true)
	if f.SortBy() == SortYourQuestions {
		t.Fatal("enabling show-mine must clear the your_questions sort")
	}
}

func TestFeedSort_UnknownCriterionRejected(t *testing.T) {
	f := loadedFeed(t, nil)
	if err := f.ApplySort(context.Background(), SortCriterion("bogus")); err == nil {
		t.Fatal("expected error for unknown criterion")
	}
}

func TestFeedExpansion_Toggles(t *testing.T) {
	f := loadedFeed(t, nil)
	if f.Expanded("q-1") {
		t.Fatal("expanded by default")
	}
	if !f.ToggleExpanded("q-1") {
		t.Fatal("toggle on failed")
	}
	if f.ToggleExpanded("q-1") {
		t.Fatal("toggle off failed")
	}
}

func TestFeedFilter_PersistsAndRestores(t *testing.T) {
	srv := authServer(t, forumServer(t, nil))
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")
	ctx := context.Background()

	f := c.NewFeed()
	if err := f.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.ApplySort(ctx, SortMostReplies); err != nil {
		t.Fatal(err)
	}
	f.SetShowMine(ctx, true)

	g := c.NewFeed()
	g.RestoreFilter(ctx)
	if g.SortBy() != SortMostReplies || !g.ShowMine() {
		t.Fatalf("restored sort=%s showMine=%v", g.SortBy(), g.ShowMine())
	}
}

func ids(qs []Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.QuestionID
	}
	return out
}
