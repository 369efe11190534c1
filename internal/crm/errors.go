package crm

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication reports that the CRM rejected the login credentials.
	ErrAuthentication = errors.New("crm authentication failed")
	// ErrSessionExpired reports that the CRM no longer accepts a session token.
	ErrSessionExpired = errors.New("crm session expired")
)

// APIError is a non-2xx response from the CRM REST API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code == "" {
		return fmt.Sprintf("crm api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("crm api: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Is reports 401 responses as ErrSessionExpired.
func (e *APIError) Is(target error) bool {
	return target == ErrSessionExpired && e.Status == 401
}
