package session

import (
	"fmt"

	"github.com/mcdev12/buffet/go/internal/models"
)

// Reduce is the session transition function. It never performs I/O: the
// returned commands describe the network calls to make next, and the error
// is the failure to report for this step of the operation.
func Reduce(s State, ev Event) (State, []Command, error) {
	switch e := ev.(type) {
	case StartRequested:
		if s.Order != nil || s.Starting {
			s.LastError = MsgAlreadyStarted
			return s, nil, newError(IneligibleAction, MsgAlreadyStarted, nil)
		}
		s.Starting = true
		s.LastError = ""
		return s, []Command{CreateOrder{TableNumber: e.TableNumber}}, nil

	case OrderStarted:
		s.Starting = false
		if e.Order == nil {
			s.LastError = MsgStartFailed
			return s, nil, newError(StartFailure, MsgStartFailed, fmt.Errorf("empty order in response"))
		}
		s.Order = e.Order.Clone()
		s.RemainingSeconds = clampRemaining(e.Order.RemainingSeconds)
		s.LastError = ""
		s.reconcileSeq = 0
		return s, []Command{RefreshMenu{}}, nil

	case StartFailed:
		s.Starting = false
		s.LastError = MsgStartFailed
		return s, nil, newError(StartFailure, MsgStartFailed, e.Err)

	case AddItemRequested:
		// Local gate only; the server re-checks and may still reject.
		if !s.Order.Open() {
			s.LastError = MsgAddIneligible
			return s, nil, newError(IneligibleAction, MsgAddIneligible, nil)
		}
		s.LastError = ""
		return s, []Command{AppendItem{OrderID: s.Order.ID, MenuItemID: e.MenuItemID, Quantity: 1}}, nil

	case ItemAppended:
		if !s.current(e.OrderID) {
			return s, nil, nil
		}
		cmd := s.fetch(false)
		return s, []Command{cmd}, nil

	case ItemRejected:
		msg := e.Message
		if msg == "" {
			msg = MsgAddFailed
		}
		err := newError(AddItemRejected, msg, e.Err)
		if !s.current(e.OrderID) {
			return s, nil, err
		}
		s.LastError = msg
		cmd := s.fetch(false)
		s.rejectFetch = cmd.Seq
		return s, []Command{cmd}, err

	case ItemFailed:
		err := newError(AddItemFailure, MsgAddFailed, e.Err)
		if s.current(e.OrderID) {
			s.LastError = MsgAddFailed
		}
		return s, nil, err

	case CheckoutRequested:
		if s.Order == nil {
			s.LastError = MsgNoOrder
			return s, nil, newError(IneligibleAction, MsgNoOrder, nil)
		}
		s.LastError = ""
		return s, []Command{SubmitCheckout{OrderID: s.Order.ID}}, nil

	case CheckedOut:
		if !s.current(e.OrderID) {
			return s, nil, nil
		}
		cmd := s.fetch(true)
		return s, []Command{cmd}, nil

	case CheckoutFailed:
		err := newError(CheckoutFailure, MsgCheckoutFailed, e.Err)
		if s.current(e.OrderID) {
			s.LastError = MsgCheckoutFailed
		}
		return s, nil, err

	case OrderFetched:
		if e.Order == nil || !s.current(e.Order.ID) || e.Seq <= s.appliedFetch {
			// Out-of-order or belongs to a session that was reset.
			return s, nil, nil
		}
		s.Order = e.Order.Clone()
		s.RemainingSeconds = clampRemaining(e.Order.RemainingSeconds)
		if e.ZeroTimer {
			s.RemainingSeconds = 0
		}
		s.appliedFetch = e.Seq
		if e.Seq >= s.reconcileSeq {
			s.reconcileSeq = 0
		}
		return s, nil, nil

	case FetchFailed:
		err := newError(FetchFailure, MsgFetchFailed, e.Err)
		if !s.current(e.OrderID) || e.Seq <= s.appliedFetch {
			return s, nil, err
		}
		if e.Seq == s.reconcileSeq {
			// The countdown is still at zero, so the next tick reconciles again.
			s.reconcileSeq = 0
		}
		if e.Seq != s.rejectFetch {
			s.LastError = MsgFetchFailed
		}
		return s, nil, err

	case Ticked:
		if !s.TimerActive() {
			return s, nil, nil
		}
		if s.RemainingSeconds <= 1 {
			s.RemainingSeconds = 0
			cmd := s.fetch(false)
			s.reconcileSeq = cmd.Seq
			return s, []Command{cmd}, nil
		}
		s.RemainingSeconds--
		return s, nil, nil

	case ResetRequested:
		s.Order = nil
		s.RemainingSeconds = 0
		s.LastError = ""
		s.reconcileSeq = 0
		s.rejectFetch = 0
		return s, nil, nil
	}

	return s, nil, fmt.Errorf("unhandled session event %T", ev)
}

func (s *State) current(orderID models.ID) bool {
	return s.Order != nil && s.Order.ID == orderID
}

func (s *State) fetch(zeroTimer bool) FetchOrder {
	return FetchOrder{OrderID: s.Order.ID, Seq: s.nextFetch(), ZeroTimer: zeroTimer}
}

func clampRemaining(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
