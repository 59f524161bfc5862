package emu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ScriptStep holds a set of buttons for a number of host frames.
type ScriptStep struct {
	Frames  int
	Buttons Buttons
}

// Script is a timed button sequence. The text form has one step per line:
//
//	# comment
//	<frames> <buttons>
//
// where buttons is "-" for none or any of L (left), R (right), D (down) and
// U (rotate), for example "12 LD".
type Script []ScriptStep

// ParseScript reads the text form.
func ParseScript(r io.Reader) (Script, error) {
	var s Script
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 2 {
			return nil, fmt.Errorf("script line %d: want <frames> <buttons>, got %q", n, line)
		}
		frames, err := strconv.Atoi(fields[0])
		if err != nil || frames <= 0 {
			return nil, fmt.Errorf("script line %d: bad frame count %q", n, fields[0])
		}
		var b Buttons
		if len(fields) == 2 {
			if b, err = parseButtons(fields[1]); err != nil {
				return nil, fmt.Errorf("script line %d: %w", n, err)
			}
		}
		s = append(s, ScriptStep{Frames: frames, Buttons: b})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return s, nil
}

func parseButtons(s string) (Buttons, error) {
	var b Buttons
	if s == "-" {
		return b, nil
	}
	for _, c := range strings.ToUpper(s) {
		switch c {
		case 'L':
			b.Left = true
		case 'R':
			b.Right = true
		case 'D':
			b.Down = true
		case 'U':
			b.Rotate = true
		default:
			return b, fmt.Errorf("unknown button %q", c)
		}
	}
	return b, nil
}

// Frames returns the total length of the script.
func (s Script) Frames() int {
	n := 0
	for _, st := range s {
		n += st.Frames
	}
	return n
}

// At returns the buttons held during frame i (0-based); nothing is held
// past the end.
func (s Script) At(i int) Buttons {
	for _, st := range s {
		if i < st.Frames {
			return st.Buttons
		}
		i -= st.Frames
	}
	return Buttons{}
}

func (b Buttons) String() string {
	var sb strings.Builder
	for _, p := range []struct {
		on bool
		c  byte
	}{{b.Left, 'L'}, {b.Right, 'R'}, {b.Down, 'D'}, {b.Rotate, 'U'}} {
		if p.on {
			sb.WriteByte(p.c)
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}
