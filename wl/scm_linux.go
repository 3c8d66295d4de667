//go:build linux

package wl

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// sendmsg writes buf to the socket, attaching fds as SCM_RIGHTS ancillary
// data. Returns the number of payload bytes written.
func (d *Display) sendmsg(buf []byte, fds []int) (int, error) {
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	return unix.SendmsgN(d.fd, buf, oob, nil, 0)
}

// recvmsg reads from the nonblocking socket, collecting any file
// descriptors delivered alongside the payload.
func (d *Display) recvmsg(buf []byte) (int, []int, error) {
	oob := make([]byte, unix.CmsgSpace(4*4)) // room for 4 fds
	n, oobn, _, _, err := unix.Recvmsg(d.fd, buf, oob, 0)
	if err != nil {
		return 0, nil, err
	}

	var fds []int
	if oobn > 0 {
		scms, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			return n, nil, fmt.Errorf("parse control message: %w", err)
		}
		for _, scm := range scms {
			if scm.Header.Type != unix.SCM_RIGHTS {
				continue
			}
			parsed, err := unix.ParseUnixRights(&scm)
			if err != nil {
				return n, nil, fmt.Errorf("parse unix rights: %w", err)
			}
			fds = append(fds, parsed...)
		}
	}
	return n, fds, nil
}

// CreateAnonymousFile creates an anonymous sealed file for shared memory.
func CreateAnonymousFile(size int64) (int, error) {
	fd, err := unix.MemfdCreate("wlshell-shm", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err == nil {
		if err := unix.Ftruncate(fd, size); err != nil {
			_ = unix.Close(fd)
			return -1, err
		}
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS,
			unix.F_SEAL_SHRINK|unix.F_SEAL_GROW|unix.F_SEAL_SEAL); err != nil {
			_ = unix.Close(fd)
			return -1, err
		}
		return fd, nil
	}

	// pre-3.17 kernels: unlinked temp file under /dev/shm
	name := fmt.Sprintf("/dev/shm/wlshell-%d", unix.Getpid())
	fd, err = unix.Open(name, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0600)
	if err != nil {
		return -1, err
	}
	_ = unix.Unlink(name)
	if err := unix.Ftruncate(fd, size); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}
