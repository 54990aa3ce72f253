package session

import "github.com/mcdev12/buffet/go/internal/models"

// Event is an input to Reduce: a user request or the outcome of a command.
type Event interface {
	event()
}

// User requests

type StartRequested struct {
	TableNumber string
}

type AddItemRequested struct {
	MenuItemID models.ID
}

type CheckoutRequested struct{}

type ResetRequested struct{}

// Ticked is one second of countdown
type Ticked struct{}

// Command outcomes

type OrderStarted struct {
	Order *models.Order
}

type StartFailed struct {
	Err error
}

type ItemAppended struct {
	OrderID models.ID
}

// ItemRejected means the backend refused the item with a reason for the diner
type ItemRejected struct {
	OrderID models.ID
	Message string
	Err     error
}

type ItemFailed struct {
	OrderID models.ID
	Err     error
}

type CheckedOut struct {
	OrderID models.ID
}

type CheckoutFailed struct {
	OrderID models.ID
	Err     error
}

type OrderFetched struct {
	Seq       uint64
	Order     *models.Order
	ZeroTimer bool
}

type FetchFailed struct {
	Seq     uint64
	OrderID models.ID
	Err     error
}

func (StartRequested) event()    {}
func (AddItemRequested) event()  {}
func (CheckoutRequested) event() {}
func (ResetRequested) event()    {}
func (Ticked) event()            {}
func (OrderStarted) event()      {}
func (StartFailed) event()       {}
func (ItemAppended) event()      {}
func (ItemRejected) event()      {}
func (ItemFailed) event()        {}
func (CheckedOut) event()        {}
func (CheckoutFailed) event()    {}
func (OrderFetched) event()      {}
func (FetchFailed) event()       {}

// Command is a side effect requested by Reduce. The controller performs it
// and feeds the outcome back as an Event.
type Command interface {
	command()
}

type CreateOrder struct {
	TableNumber string
}

type AppendItem struct {
	OrderID    models.ID
	MenuItemID models.ID
	Quantity   int
}

type SubmitCheckout struct {
	OrderID models.ID
}

// FetchOrder re-reads the order. ZeroTimer forces the countdown to 0 when
// the result is applied.
type FetchOrder struct {
	OrderID   models.ID
	Seq       uint64
	ZeroTimer bool
}

// RefreshMenu reloads the menu cache. It produces no event.
type RefreshMenu struct{}

func (CreateOrder) command()    {}
func (AppendItem) command()     {}
func (SubmitCheckout) command() {}
func (FetchOrder) command()     {}
func (RefreshMenu) command()    {}
