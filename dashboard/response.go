package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lambda-feedback/studyboard/storage"
)

var wellKnownErrors = map[error]int{
	ErrInvalidBody:             http.StatusBadRequest,
	ErrInvalidStudyID:          http.StatusBadRequest,
	ErrInvalidTrialID:          http.StatusBadRequest,
	ErrSchemaNotFound:          http.StatusInternalServerError,
	storage.ErrStudyNotFound:   http.StatusNotFound,
	storage.ErrTrialNotFound:   http.StatusNotFound,
	storage.ErrDuplicatedStudy: http.StatusBadRequest,
	storage.ErrTrialFinished:   http.StatusBadRequest,
	storage.ErrInvalidValues:   http.StatusBadRequest,
}

// ErrorStatusCode returns the status code for err. Errors are matched with
// errors.Is, so wrapped storage errors map like their sentinels.
func ErrorStatusCode(err error) int {
	for known, status := range wellKnownErrors {
		if errors.Is(err, known) {
			return status
		}
	}

	var vErr *validationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// newErrorResponse creates a new error response.
func newErrorResponse(err error) Response {
	statusCode := ErrorStatusCode(err)

	reason := err.Error()
	if statusCode == http.StatusInternalServerError {
		reason = "internal server error"
	}

	body, err := json.Marshal(struct {
		Reason string `json:"reason"`
	}{
		Reason: reason,
	})
	if err != nil {
		return Response{StatusCode: http.StatusInternalServerError}
	}

	return newResponse(statusCode, body)
}

// newJSONResponse encodes data as the response body.
func newJSONResponse(status int, data any) Response {
	body, err := json.Marshal(data)
	if err != nil {
		return newErrorResponse(err)
	}

	return newResponse(status, body)
}

// newResponse creates a new response.
func newResponse(status int, body []byte) Response {
	header := make(http.Header)
	header.Add("Content-Type", "application/json")

	return Response{
		StatusCode: status,
		Body:       body,
		Header:     header,
	}
}

// newEmptyResponse creates a response without body.
func newEmptyResponse(status int) Response {
	return Response{
		StatusCode: status,
		Header:     make(http.Header),
	}
}
