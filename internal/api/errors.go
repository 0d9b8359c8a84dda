package api

import "fmt"

// AuthError reports missing or rejected credentials. Every API call fails
// with one until valid credentials are supplied.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// RequestError carries the HTTP status and response body of a non-2xx reply.
type RequestError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

// NotFound reports whether the request failed with 404.
func (e *RequestError) NotFound() bool { return e.Status == 404 }

// ClientError reports whether the failure is a 4xx, which bulk export must
// not retry.
func (e *RequestError) ClientError() bool { return e.Status >= 400 && e.Status < 500 }

// ValidationError reports a required local field missing before transmission;
// the request is never sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
