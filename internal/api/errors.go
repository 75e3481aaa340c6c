package api

import (
	"fmt"
)

// Kind classifies an API failure so callers can branch without string
// matching.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindInvalidRequest Kind = "invalid_request"
	KindConflict       Kind = "conflict"
	KindServerError    Kind = "server_error"
	KindOtherHTTP      Kind = "other_http"
	KindConnectivity   Kind = "connectivity"
	KindTimeout        Kind = "timeout"
	KindCircuitOpen    Kind = "circuit_open"
)

// Error is a structured failure from the Turbo API. It carries the endpoint,
// HTTP status and response body so tool error text can guide the agent
// toward a fix.
type Error struct {
	Kind     Kind
	Endpoint string
	Status   int
	Body     string
	msg      string
}

func (e *Error) Error() string {
	return e.msg
}

// AgentMessage formats the error for the agent to act on.
func (e *Error) AgentMessage() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("Error: %s not found (404). Try: Use a list tool to find valid IDs.", e.Endpoint)
	case KindInvalidRequest:
		return fmt.Sprintf("Error: Invalid input for %s (422). Details: %s. Try: Check required fields and value formats.", e.Endpoint, e.Body)
	case KindConflict:
		return fmt.Sprintf("Error: Conflict on %s (409). Details: %s. Try: Check current state before retrying.", e.Endpoint, e.Body)
	case KindServerError:
		return fmt.Sprintf("Error: Turbo API server error on %s (%d). Try: Wait a moment and retry.", e.Endpoint, e.Status)
	case KindOtherHTTP:
		return fmt.Sprintf("Error: %s returned %d. Details: %s", e.Endpoint, e.Status, e.Body)
	default:
		// Connectivity, timeout and circuit-open errors are already phrased
		// for the agent.
		return e.msg
	}
}

// statusKind maps an HTTP status to its error kind.
func statusKind(status int) Kind {
	switch {
	case status == 404:
		return KindNotFound
	case status == 422:
		return KindInvalidRequest
	case status == 409:
		return KindConflict
	case status >= 500:
		return KindServerError
	default:
		return KindOtherHTTP
	}
}

// httpError builds an Error for a non-2xx response.
func httpError(endpoint string, status int, body string) *Error {
	return &Error{
		Kind:     statusKind(status),
		Endpoint: endpoint,
		Status:   status,
		Body:     body,
		msg:      fmt.Sprintf("%s failed with %d", endpoint, status),
	}
}
