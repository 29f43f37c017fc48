package transport

import (
	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/internal/portals/domain"
	"github.com/pendergraft/listingdesk/internal/publish"
)

// ActionRequest is the body of POST /listings/{id}/portals/{portal}/actions.
type ActionRequest struct {
	Action string `json:"action"`
}

// PortalsResponse is the portal table of a listing.
type PortalsResponse struct {
	Data          []domain.Row          `json:"data"`
	Notifications []notify.Notification `json:"notifications"`
}

// ActionResponse carries the workflow outcome. A gate failure is a successful response
// whose outcome is Aborted with an in-widget message.
type ActionResponse struct {
	Outcome       *publish.Outcome      `json:"outcome"`
	Notifications []notify.Notification `json:"notifications"`
}

// BoardResponse carries a regional portal board.
type BoardResponse struct {
	Board         *domain.Board         `json:"board"`
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
