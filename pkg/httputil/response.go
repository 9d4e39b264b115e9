package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// StandardError response
type StandardError struct {
	Message string `json:"message"`
}

// ResponseJSON response http request with application/json
func ResponseJSON(data interface{}, status int, writer http.ResponseWriter) (err error) {
	d, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		d, _ = json.Marshal(StandardError{Message: "ResponseJSON: Failed to response " + err.Error()})
		err = fmt.Errorf("ResponseJSON: Failed to response : %s", err)
	}

	writer.Header().Set("Content-type", "application/json")
	writer.WriteHeader(status)
	writer.Write(d)
	return
}

// ResponseError response http request with standard error
func ResponseError(message string, status int, writer http.ResponseWriter) (err error) {
	return ResponseJSON(StandardError{Message: message}, status, writer)
}

// RetryCallback handles a retry attempt error.
type RetryCallback func(attempt, maxAttempts int, err error)

// HTTPStatusError represents a non-2xx HTTP response.
type HTTPStatusError struct {
	StatusCode int
	Message    string
}

// NewHTTPError returns an HTTPStatusError for code.
func NewHTTPError(code int, message string) HTTPStatusError {
	return HTTPStatusError{StatusCode: code, Message: message}
}

func (err HTTPStatusError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("non-success status: %d", err.StatusCode)
	}
	return fmt.Sprintf("non-success status: %d: %s", err.StatusCode, err.Message)
}

// PostJSONWithRetry sends a JSON POST request with retry support.
func PostJSONWithRetry(ctx context.Context, client *http.Client, url string, payload interface{}, maxRetries int, delay time.Duration, onRetry RetryCallback) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = DoJSON(ctx, client, http.MethodPost, url, nil, payload, nil)
		if lastErr == nil {
			return nil
		}

		if onRetry != nil {
			onRetry(attempt, maxRetries, lastErr)
		}
		if attempt < maxRetries && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

// DoJSON sends payload, when not nil, as a JSON body and decodes a JSON
// response into target, when not nil. A non-2xx response is returned as
// HTTPStatusError carrying the start of the body.
func DoJSON(ctx context.Context, client *http.Client, method, url string, header http.Header, payload, target interface{}) error {
	data, err := DoRaw(ctx, client, method, url, header, payload)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return json.Unmarshal(data, target)
}

// DoRaw is DoJSON without decoding: it returns the whole response body.
func DoRaw(ctx context.Context, client *http.Client, method, url string, header http.Header, payload interface{}) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if client == nil {
		client = &http.Client{}
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(jsonData)
	}

	request, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return nil, NewHTTPError(response.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return io.ReadAll(response.Body)
}

// DecodeJSON decodes JSON with strict field checking.
func DecodeJSON(reader io.Reader, target interface{}) error {
	if target == nil {
		return nil
	}

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}
