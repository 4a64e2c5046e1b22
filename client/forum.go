package client

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Collection reads degrade non-auth failures (5xx, transport, anything else)
// to an empty slice so callers can still render an empty state. Auth failures
// propagate: they mean the session itself is dead, not the data.

// Questions lists every forum question.
func (c *Client) Questions(ctx context.Context) ([]Question, error) {
	return c.listQuestions(ctx, "/forum/question/all", "list questions")
}

// MyQuestions lists only the caller's questions.
func (c *Client) MyQuestions(ctx context.Context) ([]Question, error) {
	return c.listQuestions(ctx, "/forum/my-questions/", "list my questions")
}

func (c *Client) listQuestions(ctx context.Context, path, op string) ([]Question, error) {
	if err := c.ensureSession(ctx); err != nil {
		if IsAuthError(err) {
			return nil, err
		}
		log.Warn().Err(err).Str("op", op).Msg("session check degraded to empty list")
		return []Question{}, nil
	}
	req, err := c.newJSONRequest(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	var qs []Question
	if err := c.doJSON(req, op, http.StatusOK, &qs); err != nil {
		if IsAuthError(err) {
			return nil, err
		}
		log.Warn().Err(err).Str("op", op).Msg("question fetch degraded to empty list")
		return []Question{}, nil
	}
	if qs == nil {
		qs = []Question{}
	}
	return qs, nil
}

// GetQuestion fetches a single question.
func (c *Client) GetQuestion(ctx context.Context, questionID string) (*Question, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/forum/question/"+questionID, nil, true)
	if err != nil {
		return nil, err
	}
	var q Question
	if err := c.doJSON(req, "get question", http.StatusOK, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// QuestionAnswers lists the answers attached to a question, degrading
// non-auth failures to an empty list like the other collection reads.
func (c *Client) QuestionAnswers(ctx context.Context, questionID string) ([]Answer, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/forum/question/"+questionID+"/answers", nil, true)
	if err != nil {
		return nil, err
	}
	var as []Answer
	if err := c.doJSON(req, "list answers", http.StatusOK, &as); err != nil {
		if IsAuthError(err) {
			return nil, err
		}
		log.Warn().Err(err).Str("question_id", questionID).Msg("answer fetch degraded to empty list")
		return []Answer{}, nil
	}
	if as == nil {
		as = []Answer{}
	}
	return as, nil
}

// GetAnswer fetches a single answer.
func (c *Client) GetAnswer(ctx context.Context, answerID string) (*Answer, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/forum/answer/"+answerID, nil, true)
	if err != nil {
		return nil, err
	}
	var a Answer
	if err := c.doJSON(req, "get answer", http.StatusOK, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// PostQuestion creates a question. Title and body must be non-empty after
// trimming; the session is re-validated before the request fires.
func (c *Client) PostQuestion(ctx context.Context, title, body string) (*Question, error) {
	title, err := requireText("post question", "title", title)
	if err != nil {
		return nil, err
	}
	body, err = requireText("post question", "question", body)
	if err != nil {
		return nil, err
	}
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/forum/question/", createQuestionRequest{QuestionHeader: title, Question: body}, true)
	if err != nil {
		return nil, err
	}
	var q Question
	if err := c.doJSON(req, "post question", http.StatusOK, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// PostReply creates an answer under a question.
func (c *Client) PostReply(ctx context.Context, questionID, body string) (*Answer, error) {
	body, err := requireText("post reply", "answer", body)
	if err != nil {
		return nil, err
	}
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/forum/answer/", createAnswerRequest{QuestionID: questionID, Answer: body}, true)
	if err != nil {
		return nil, err
	}
	var a Answer
	if err := c.doJSON(req, "post reply", http.StatusOK, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteQuestion removes a question server-side.
func (c *Client) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}
	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/forum/question/"+questionID, nil, true)
	if err != nil {
		return err
	}
	return c.doJSON(req, "delete question", http.StatusOK, nil)
}

// DeleteAnswer removes an answer server-side.
func (c *Client) DeleteAnswer(ctx context.Context, answerID string) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}
	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/forum/answer/"+answerID, nil, true)
	if err != nil {
		return err
	}
	return c.doJSON(req, "delete answer", http.StatusOK, nil)
}
