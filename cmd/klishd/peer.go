package main

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// peerPID reads the connecting process's pid off the unix socket via
// SO_PEERCRED, the kernel-verified alternative to trusting a client-
// supplied pid (spec.md §6 "the USER env var supplies the default peer
// username when the socket peer lookup fails" implies lookup is
// attempted first).
func peerPID(conn *net.UnixConn) (int32, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var cred *unix.Ucred
	var credErr error
	err = raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return 0, err
	}
	if credErr != nil {
		return 0, credErr
	}
	return cred.Pid, nil
}

func secondsToDuration(s int) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}
