//go:build unix

package notes

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func reuseControl(_, _ string, c syscall.RawConn) error {
	return setOptions(c, unix.SO_REUSEADDR)
}

func broadcastControl(_, _ string, c syscall.RawConn) error {
	return setOptions(c, unix.SO_BROADCAST)
}

func setOptions(c syscall.RawConn, opts ...int) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		for _, opt := range opts {
			if serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, opt, 1); serr != nil {
				return
			}
		}
	})
	if err != nil {
		return err
	}
	return serr
}
