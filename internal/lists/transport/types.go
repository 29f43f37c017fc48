package transport

import (
	"github.com/pendergraft/listingdesk/internal/lists/domain"
	"github.com/pendergraft/listingdesk/internal/notify"
)

// SetFilterRequest is the body of PUT .../filters/{key}. An empty value removes the filter.
type SetFilterRequest struct {
	Value string `json:"value"`
}

// SetPageSizeRequest is the body of PUT .../page-size.
type SetPageSizeRequest struct {
	PageSize int `json:"pageSize"`
}

// SessionResponse carries a session render model. Error is set when a fetch failed but
// the session is still renderable.
type SessionResponse struct {
	Session       *domain.Session       `json:"session"`
	Error         *ErrorDetail          `json:"error,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error         ErrorDetail           `json:"error"`
	Notifications []notify.Notification `json:"notifications"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
