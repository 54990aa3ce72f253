package kiosk

import (
	"errors"
	"fmt"
	"strings"
)

type CommandKind string

const (
	CmdStart    CommandKind = "start"
	CmdAdd      CommandKind = "add"
	CmdCheckout CommandKind = "checkout"
	CmdNew      CommandKind = "new"
	CmdMenu     CommandKind = "menu"
	CmdHelp     CommandKind = "help"
	CmdQuit     CommandKind = "quit"
)

// Command is one parsed input line
type Command struct {
	Kind CommandKind
	Arg  string
}

var ErrEmptyLine = errors.New("empty line")

const helpText = `คำสั่ง:
  start [โต๊ะ]   เริ่มออเดอร์ใหม่
  add <รหัส>     เพิ่มรายการอาหาร
  checkout       เช็คบิล
  new            กลับไปหน้าเริ่มต้น
  menu           โหลดเมนูใหม่
  help           แสดงคำสั่ง
  quit           ออก`

// ParseCommand reads a command line. The table label may contain spaces.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmptyLine
	}

	kind := CommandKind(strings.ToLower(fields[0]))
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch kind {
	case CmdStart:
		return Command{Kind: kind, Arg: rest}, nil
	case CmdAdd:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: add <menu-item-id>")
		}
		return Command{Kind: kind, Arg: fields[1]}, nil
	case CmdCheckout, CmdNew, CmdMenu, CmdHelp, CmdQuit:
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%s takes no arguments", kind)
		}
		return Command{Kind: kind}, nil
	case "exit":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q, type help", fields[0])
}
