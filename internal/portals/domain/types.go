// Package domain contains the portal syndication widgets: the per-listing portal table
// with its publish workflow, and the regional portal board.
package domain

import (
	"errors"

	"github.com/pendergraft/listingdesk/pkg/client"
)

// Domain errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInProgress    = errors.New("publish already in progress")
	ErrFetchFailed   = errors.New("fetch failed")
	ErrBoardNotFound = errors.New("board not found")
	ErrRowNotFound   = errors.New("row not found")
)

// Portal statuses as reported by the platform.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Row is a portal table row with its derived display attributes.
type Row struct {
	PortalName          string `json:"portalName"`
	PortalStatus        string `json:"PortalStatus"`
	IsPublishedOnPortal bool   `json:"isPublishedOnPortal"`
	StatusColor         string `json:"statusColor"`
	// PublishStatus is the action the row button triggers.
	PublishStatus string `json:"publishStatus"`
	// ButtonDisabled is true for inactive portals.
	ButtonDisabled bool   `json:"buttonActive"`
	ButtonColor    string `json:"buttonColor"`
}

// NewRow derives the display attributes of a portal.
func NewRow(p client.Portal) Row {
	r := Row{
		PortalName:          p.PortalName,
		PortalStatus:        p.PortalStatus,
		IsPublishedOnPortal: p.IsPublishedOnPortal,
		StatusColor:         "slds-text-color_success",
		PublishStatus:       "Publish",
		ButtonDisabled:      p.PortalStatus == StatusInactive,
		ButtonColor:         "success",
	}
	if p.PortalStatus == StatusInactive {
		r.StatusColor = "slds-text-color_error"
	}
	if p.IsPublishedOnPortal {
		r.PublishStatus = "Unpublish"
		r.ButtonColor = "destructive"
	}
	return r
}

// BoardRow is one portal on the regional board.
type BoardRow struct {
	ID            string `json:"Id"`
	PortalName    string `json:"portalName"`
	PortalStatus  string `json:"portalStatus"`
	ButtonLabel   string `json:"buttonLabel"`
	ButtonVariant string `json:"buttonVariant"`
}

// NewBoardRow derives the button attributes of a regional portal.
func NewBoardRow(p client.RegionPortal) BoardRow {
	r := BoardRow{ID: p.ID, PortalName: p.PortalName, PortalStatus: p.PortalStatus}
	r.relabel()
	return r
}

// Toggle flips the row between Active and Inactive.
func (r *BoardRow) Toggle() {
	if r.PortalStatus == StatusActive {
		r.PortalStatus = StatusInactive
	} else {
		r.PortalStatus = StatusActive
	}
	r.relabel()
}

func (r *BoardRow) relabel() {
	if r.PortalStatus == StatusActive {
		r.ButtonLabel = "Unpublish"
		r.ButtonVariant = "destructive"
		return
	}
	r.ButtonLabel = "Publish"
	r.ButtonVariant = "success"
}

// Board is a regional portal board session. Toggles are local to the session.
type Board struct {
	ID        string     `json:"id"`
	ListingID string     `json:"listingId"`
	Rows      []BoardRow `json:"rows"`
}

func (b *Board) clone() *Board {
	out := &Board{ID: b.ID, ListingID: b.ListingID, Rows: make([]BoardRow, len(b.Rows))}
	copy(out.Rows, b.Rows)
	return out
}
