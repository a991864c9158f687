//go:build windows

package notes

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func reuseControl(_, _ string, c syscall.RawConn) error {
	return setOption(c, windows.SO_REUSEADDR)
}

func broadcastControl(_, _ string, c syscall.RawConn) error {
	return setOption(c, windows.SO_BROADCAST)
}

func setOption(c syscall.RawConn, opt int) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, opt, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
