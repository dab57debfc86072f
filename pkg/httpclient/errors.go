package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

// downstreamError accepts both the {"error":{code,message}} envelope and the
// flat {"name","message"} shape many SaaS APIs answer with.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (d downstreamError) codeAndMessage() (string, string, bool) {
	if d.Error != nil {
		return d.Error.Code, d.Error.Message, true
	}
	if d.Message != "" {
		return d.Name, d.Message, true
	}
	return "", "", false
}

// ParseResponseError consumes and closes resp.Body and converts a non-2xx
// answer from service into an AppError where the status allows.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	var d downstreamError
	if json.Unmarshal(body, &d) == nil {
		if code, msg, ok := d.codeAndMessage(); ok {
			return mapDownstreamError(resp.StatusCode, code, msg, service)
		}
	}
	return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, string(body))
}

func mapDownstreamError(status int, code, message, service string) error {
	qualified := fmt.Sprintf("%s: %s", service, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(service, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusGone:
		return apperrors.Gone(qualified)
	case status == http.StatusUnprocessableEntity:
		if code == "" {
			code = "UNPROCESSABLE"
		}
		return apperrors.Unprocessable(code, qualified)
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified, nil)
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", service, status, code, message)
	default:
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}
