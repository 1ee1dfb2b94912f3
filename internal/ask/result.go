package ask

import (
	"errors"
	"fmt"
)

// Result is the outcome of one submission: either Success or Failure.
type Result interface {
	isResult()
}

// Success carries everything the service returned.
type Success struct {
	Answer string
	SQL    string
	Data   []Row
	// DataError is set when the service sent an error object in place of rows.
	DataError string
}

// Failure carries a single user-facing message and nothing else.
type Failure struct {
	Answer string
}

func (Success) isResult() {}
func (Failure) isResult() {}

// AnswerOf returns the answer text of either variant.
func AnswerOf(r Result) string {
	switch v := r.(type) {
	case Success:
		return v.Answer
	case Failure:
		return v.Answer
	default:
		return ""
	}
}

// ServiceError reports an error the service signaled itself, through a
// non-2xx status or an error-only body.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("translation service error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("translation service error (status %d): %s", e.StatusCode, e.Message)
}

// ResultOf folds a round trip into a Result. A service-provided message wins
// over the fallback; every other error collapses to FallbackMessage.
func ResultOf(resp Response, err error) Result {
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) && svcErr.Message != "" {
			return Failure{Answer: svcErr.Message}
		}
		return Failure{Answer: FallbackMessage}
	}
	return Success{
		Answer:    resp.Answer,
		SQL:       resp.SQL,
		Data:      resp.Rows,
		DataError: resp.DataError,
	}
}
