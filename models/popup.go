package models

import "time"

// PopupAction describes what a dismissal pass did to an element.
type PopupAction string

const (
	PopupActionClick       PopupAction = "click"
	PopupActionRemove      PopupAction = "remove"
	PopupActionHide        PopupAction = "hide"
	PopupActionUnlock      PopupAction = "unlock_scroll"
	PopupActionPreConsent  PopupAction = "pre_consent"
	PopupActionBlockedScan PopupAction = "blocked_scan"
)

// PopupResult is the outcome of a single dismissal action.
type PopupResult string

const (
	PopupSuccess PopupResult = "success"
	PopupFailure PopupResult = "failure"
)

// PopupEvent is an append-only log entry, one per dismissal attempt.
type PopupEvent struct {
	Selector   string
	Action     PopupAction
	Result     PopupResult
	Attempt    int
	Timestamp  time.Time
	CurrentURL string
}
