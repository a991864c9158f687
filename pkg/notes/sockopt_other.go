//go:build !unix && !windows

package notes

import "syscall"

func reuseControl(_, _ string, _ syscall.RawConn) error { return nil }

func broadcastControl(_, _ string, _ syscall.RawConn) error { return nil }
