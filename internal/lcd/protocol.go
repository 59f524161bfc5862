package lcd

import (
	"fmt"
	"io"
)

// Port is the write side of the controller link. The D/C line selects whether
// the following bytes are commands or display data; it must be set before the
// bytes it applies to.
type Port interface {
	SetDataMode(data bool)
	io.Writer
}

// Controller commands used by the renderer.
const (
	CmdFunctionSet    = 0x20 // basic instruction set, horizontal addressing
	CmdDisplayNormal  = 0x0C
	CmdDisplayInverse = 0x0D
	CmdSetX           = 0x80
	CmdSetY           = 0x40
)

// Init sends the two-command start-up sequence: addressing mode, then
// display mode.
func Init(p Port) error {
	return sendCommands(p, CmdFunctionSet, CmdDisplayNormal)
}

// Invert switches the controller between inverse and normal video.
func Invert(p Port, on bool) error {
	if on {
		return sendCommands(p, CmdDisplayInverse)
	}
	return sendCommands(p, CmdDisplayNormal)
}

// Flush moves the controller's address to (0, 0) and streams the whole
// buffer to it.
func (f *Frame) Flush(p Port) error {
	if err := sendCommands(p, CmdSetX|0, CmdSetY|0); err != nil {
		return err
	}
	p.SetDataMode(true)
	n, err := p.Write(f.cache[:])
	if err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	if n != CacheSize {
		return fmt.Errorf("flush frame: short write %d/%d", n, CacheSize)
	}
	return nil
}

func sendCommands(p Port, cmds ...byte) error {
	p.SetDataMode(false)
	if _, err := p.Write(cmds); err != nil {
		return fmt.Errorf("send commands % x: %w", cmds, err)
	}
	return nil
}
