package kiosk

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/buffet/go/internal/menu"
	"github.com/mcdev12/buffet/go/internal/models"
	"github.com/mcdev12/buffet/go/internal/session"
)

// Session is the part of session.Controller the kiosk drives
type Session interface {
	Start(ctx context.Context, tableNumber string) error
	AddItem(ctx context.Context, menuItemID models.ID) error
	Checkout(ctx context.Context) error
	Reset(ctx context.Context) error
	Snapshot() session.State
}

// Kiosk is a line-oriented terminal front end for one ordering session
type Kiosk struct {
	session Session
	menu    *menu.Cache
	clear   bool

	mu  sync.Mutex
	out io.Writer
}

// New creates a kiosk. When clear is set every frame starts by clearing the screen.
func New(s Session, cache *menu.Cache, out io.Writer, clear bool) *Kiosk {
	return &Kiosk{session: s, menu: cache, out: out, clear: clear}
}

// Redraw renders the given state. It is safe to use as a controller observer.
func (k *Kiosk) Redraw(state session.State) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.clear {
		io.WriteString(k.out, "\033[H\033[2J")
	}
	v := View{State: state}
	if k.menu != nil {
		v.Menu = k.menu.Grouped()
		v.MenuError = k.menu.LastError()
	}
	if err := Render(k.out, v); err != nil {
		log.Error().Err(err).Msg("failed to render kiosk screen")
	}
}

func (k *Kiosk) println(a ...interface{}) {
	k.mu.Lock()
	defer k.mu.Unlock()
	fmt.Fprintln(k.out, a...)
}

// Run reads commands from in until quit, EOF or ctx is done
func (k *Kiosk) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if k.menu != nil {
		if err := k.menu.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("initial menu load failed")
		}
	}
	k.Redraw(k.session.Snapshot())

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			quit, err := k.Execute(ctx, line)
			if errors.Is(err, session.ErrStopped) {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// Execute runs one input line. Session failures are already on screen as
// LastError, so only parse errors are printed here.
func (k *Kiosk) Execute(ctx context.Context, line string) (quit bool, err error) {
	cmd, err := ParseCommand(line)
	if errors.Is(err, ErrEmptyLine) {
		return false, nil
	}
	if err != nil {
		k.println(err)
		return false, err
	}

	switch cmd.Kind {
	case CmdStart:
		err = k.session.Start(ctx, cmd.Arg)
	case CmdAdd:
		err = k.session.AddItem(ctx, models.ID(cmd.Arg))
	case CmdCheckout:
		err = k.session.Checkout(ctx)
	case CmdNew:
		err = k.session.Reset(ctx)
	case CmdMenu:
		if k.menu != nil {
			err = k.menu.Refresh(ctx)
		}
		k.Redraw(k.session.Snapshot())
	case CmdHelp:
		k.println(helpText)
	case CmdQuit:
		return true, nil
	}

	if err != nil {
		log.Debug().Err(err).Str("command", string(cmd.Kind)).Msg("kiosk command failed")
	}
	return false, err
}
