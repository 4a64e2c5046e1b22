package client

// User is the backend's canonical user record. It is owned by the session
// layer and mirrored into the persistent store under a fixed key.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Age       int    `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	CreatedAt string `json:"created_at"`
}

// TokenResponse is returned by the login and refresh-token endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

// RegisterRequest carries the fields for account creation. Password and
// ConfirmPassword are validated client-side and ConfirmPassword never goes
// on the wire.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	Age             int    `json:"age,omitempty"`
	Gender          string `json:"gender,omitempty"`
}

// UserUpdate is a partial profile update. Empty fields are omitted so the
// backend only touches what changed.
type UserUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// Question is a forum question. Display order is not intrinsic; the Feed
// recomputes it from the active sort criterion.
type Question struct {
	QuestionID     string `json:"question_id"`
	UserID         string `json:"user_id"`
	Username       string `json:"username,omitempty"`
	QuestionHeader string `json:"question_header"`
	Question       string `json:"question"`
	CreationDate   string `json:"creation_date"`
}

// Answer is a forum answer, strictly nested under its Question.
type Answer struct {
	AnswerID     string `json:"answer_id"`
	QuestionID   string `json:"question_id"`
	UserID       string `json:"user_id"`
	Username     string `json:"username,omitempty"`
	Answer       string `json:"answer"`
	CreationDate string `json:"creation_date"`
}

// History groups a user's past queries. QuerySet is the authoritative
// membership list; Query entities are resolved separately by ID.
type History struct {
	HistoryID   string   `json:"history_id"`
	UserID      string   `json:"user_id"`
	QuerySet    []string `json:"query_set"`
	QueryNumber int      `json:"query_number"`
}

// Query is a single resolved query reference.
type Query struct {
	ID           string `json:"id"`
	Query        string `json:"query"`
	Response     string `json:"response"`
	UserID       string `json:"user_id"`
	HistoryID    string `json:"history_id"`
	CreationDate string `json:"creation_date"`
}

type createQuestionRequest struct {
	QuestionHeader string `json:"question_header"`
	Question       string `json:"question"`
}

type createAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type createHistoryRequest struct {
	HistoryID string `json:"history_id,omitempty"`
}

type historyQueryRequest struct {
	QueryID string `json:"query_id"`
}
