package session

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed session operation
type ErrorKind string

const (
	FetchFailure     ErrorKind = "FETCH_FAILURE"
	StartFailure     ErrorKind = "START_FAILURE"
	AddItemRejected  ErrorKind = "ADD_ITEM_REJECTED"
	AddItemFailure   ErrorKind = "ADD_ITEM_FAILURE"
	CheckoutFailure  ErrorKind = "CHECKOUT_FAILURE"
	IneligibleAction ErrorKind = "INELIGIBLE_ACTION"
)

// User-facing messages
const (
	MsgStartFailed    = "ไม่สามารถเริ่มออเดอร์ได้"
	MsgAlreadyStarted = "มีออเดอร์ที่กำลังดำเนินการอยู่แล้ว"
	MsgAddIneligible  = "ไม่สามารถเพิ่มรายการได้ เนื่องจากหมดเวลาหรือเช็คบิลแล้ว"
	MsgAddFailed      = "ไม่สามารถเพิ่มรายการได้"
	MsgNoOrder        = "ยังไม่ได้เริ่มออเดอร์"
	MsgCheckoutFailed = "ไม่สามารถเช็คบิลได้"
	MsgFetchFailed    = "ไม่สามารถโหลดข้อมูลออเดอร์ได้"
)

// ErrStopped is returned by operations dispatched after the controller loop exited
var ErrStopped = errors.New("session controller stopped")

// Error is the operation-boundary failure of a session action. Message is
// what the diner sees; Err is the underlying cause, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind of a session error, or "" for anything else
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}
