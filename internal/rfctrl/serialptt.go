package rfctrl

import (
	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

// serialPTT raises/lowers the RTS line on a serial port to key a PA that
// has no GPIO line of its own, mirroring the teacher's RTS_ON/RTS_OFF/
// _TIOCM helpers in ptt.go for transceivers whose PTT input is wired to
// a serial handshaking pin rather than a dedicated control line.
type serialPTT struct {
	t *term.Term
}

func openSerialPTT(t *term.Term) *serialPTT {
	return &serialPTT{t: t}
}

func (s *serialPTT) Set(on bool) error {
	return tiocm(s.t.Fd(), unix.TIOCM_RTS, on)
}

func (s *serialPTT) Close() error {
	return s.t.Close()
}

func tiocm(fd uintptr, bit int, on bool) error {
	cur, err := unix.IoctlGetInt(int(fd), unix.TIOCMGET)
	if err != nil {
		return err
	}
	if on {
		cur |= bit
	} else {
		cur &^= bit
	}
	return unix.IoctlSetInt(int(fd), unix.TIOCMSET, cur)
}
