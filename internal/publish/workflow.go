// Package publish implements the gated publish/unpublish workflow of a listing on a portal.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pendergraft/listingdesk/pkg/client"
)

// Action is the requested portal operation.
type Action string

const (
	ActionPublish   Action = "Publish"
	ActionUnpublish Action = "Unpublish"
)

// ErrInvalidAction is returned for an unknown action name.
var ErrInvalidAction = errors.New("invalid action")

// ErrAlreadyRun is returned when a workflow instance is run twice.
var ErrAlreadyRun = errors.New("workflow already run")

// ParseAction parses "Publish" or "Unpublish".
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionPublish, ActionUnpublish:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// Past returns the past tense used in toasts ("Published", "Unpublished").
func (a Action) Past() string { return string(a) + "ed" }

// State is a workflow state.
type State string

const (
	StateIdle             State = "Idle"
	StateValidatingFields State = "ValidatingFields"
	StateValidatingMedia  State = "ValidatingMedia"
	StateSubmitting       State = "Submitting"
	StateDone             State = "Done"
	StateAborted          State = "Aborted"
)

// Reason classifies why a workflow aborted.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonPostalCode    Reason = "postal_code"
	ReasonMissingFields Reason = "missing_fields"
	ReasonNoMedia       Reason = "no_media"
	ReasonMediaFailed   Reason = "media_check_failed"
	ReasonRejected      Reason = "rejected"
	ReasonTransport     Reason = "transport"
)

// Validation reports whether the reason is a failed precondition (shown in-widget)
// rather than a remote failure (shown as a toast).
func (r Reason) Validation() bool {
	return r == ReasonPostalCode || r == ReasonMissingFields || r == ReasonNoMedia
}

// GateContext is the input of one publish attempt.
type GateContext struct {
	Portal  string
	Action  Action
	Listing client.Record
	// RequiredFields maps portal name to its ordered required-field descriptors. Portals
	// absent from the map have no field gate.
	RequiredFields map[string][]RequiredField
}

// MediaChecker reports whether a listing has media.
type MediaChecker interface {
	CheckMediaPresence(ctx context.Context, listingID string) (string, error)
}

// Submitter performs the side-effecting portal call.
type Submitter interface {
	PublishOrUnpublish(ctx context.Context, portal, action, listingID string) (*client.PublishResult, error)
}

// Outcome is the result of a workflow run.
type Outcome struct {
	State   State  `json:"state"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
	// Missing lists the labels of absent required fields.
	Missing []string `json:"missing,omitempty"`
	// Refresh asks the host to reload the whole widget.
	Refresh bool `json:"refresh"`
}

// Workflow runs Idle → ValidatingFields → ValidatingMedia → Submitting → Done, aborting
// at the first failed gate. An instance runs once.
type Workflow struct {
	gc     GateContext
	media  MediaChecker
	submit Submitter
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	history []State
	ran     bool
}

// New creates a workflow for one attempt.
func New(gc GateContext, media MediaChecker, submit Submitter, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		gc:      gc,
		media:   media,
		submit:  submit,
		logger:  logger.With("portal", gc.Portal, "action", string(gc.Action), "listing", gc.Listing.ID()),
		state:   StateIdle,
		history: []State{StateIdle},
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// History returns every state visited, starting with Idle.
func (w *Workflow) History() []State {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]State, len(w.history))
	copy(out, w.history)
	return out
}

func (w *Workflow) enter(s State) {
	w.mu.Lock()
	w.state = s
	w.history = append(w.history, s)
	w.mu.Unlock()
	w.logger.Debug("publish workflow transition", "state", string(s))
}

func (w *Workflow) abort(reason Reason, msg string, missing []string) Outcome {
	w.enter(StateAborted)
	w.logger.Info("publish workflow aborted", "reason", string(reason), "message", msg)
	return Outcome{State: StateAborted, Reason: reason, Message: msg, Missing: missing}
}

// Run executes the workflow. The returned error is non-nil only for misuse; every gate
// or remote failure is reported through the Outcome.
func (w *Workflow) Run(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	if w.ran {
		w.mu.Unlock()
		return Outcome{}, ErrAlreadyRun
	}
	w.ran = true
	w.mu.Unlock()

	if _, err := ParseAction(string(w.gc.Action)); err != nil {
		return Outcome{}, err
	}

	if w.gc.Action == ActionPublish {
		if out, ok := w.validateFields(); !ok {
			return out, nil
		}
		if out, ok := w.validateMedia(ctx); !ok {
			return out, nil
		}
	}

	return w.submitAction(ctx), nil
}

func (w *Workflow) validateFields() (Outcome, bool) {
	w.enter(StateValidatingFields)

	fields, known := w.gc.RequiredFields[w.gc.Portal]
	if !known {
		return Outcome{}, true
	}
	if !ValidPostalCode(w.gc.Listing) {
		return w.abort(ReasonPostalCode, PostalCodeMessage, nil), false
	}
	missing := MissingRequiredFields(w.gc.Listing, fields)
	if len(missing) > 0 {
		labels := make([]string, len(missing))
		for i, f := range missing {
			labels[i] = f.Label
		}
		return w.abort(ReasonMissingFields, MissingFieldsMessage(missing), labels), false
	}
	return Outcome{}, true
}

func (w *Workflow) validateMedia(ctx context.Context) (Outcome, bool) {
	w.enter(StateValidatingMedia)

	res, err := w.media.CheckMediaPresence(ctx, w.gc.Listing.ID())
	if err != nil {
		w.logger.Error("media presence check failed", "error", err)
		return w.abort(ReasonMediaFailed, MediaFailedMessage, nil), false
	}
	if res != client.MediaSentinel {
		return w.abort(ReasonNoMedia, res, nil), false
	}
	return Outcome{}, true
}

func (w *Workflow) submitAction(ctx context.Context) Outcome {
	w.enter(StateSubmitting)

	res, err := w.submit.PublishOrUnpublish(ctx, w.gc.Portal, string(w.gc.Action), w.gc.Listing.ID())
	if err != nil {
		w.logger.Error("portal call failed", "error", err)
		return w.abort(ReasonTransport, SubmitFailedMessage, nil)
	}
	if !res.IsSuccess {
		return w.abort(ReasonRejected, res.ErrorMsg, nil)
	}

	w.enter(StateDone)
	return Outcome{
		State:   StateDone,
		Message: "Listing " + w.gc.Action.Past() + " successfully!",
		Refresh: true,
	}
}
