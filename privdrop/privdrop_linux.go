package privdrop

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Drop sets no_new_privs and clears the effective, permitted and inheritable
// capability sets of every thread of the process.
//
// Capabilities and no_new_privs are per-thread attributes on Linux. When the
// runtime cannot apply a syscall to all threads (cgo builds), only the
// calling thread is changed; callers then must run all remaining work on it.
//
// Clearing the sets does not stop a process running as uid 0 from regaining
// them through execve; the service is expected to run as an unprivileged user
// with CAP_SYS_RAWIO granted as an ambient capability.
func Drop() error {
	if err := noNewPrivs(); err != nil {
		return fmt.Errorf("setting no_new_privs: %w", err)
	}

	hdr := &unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
	data := &[2]unix.CapUserData{}

	if err := capset(hdr, &data[0]); err != nil {
		return fmt.Errorf("clearing capabilities: %w", err)
	}

	logger.Infof("capabilities dropped")

	return nil
}

// Effective returns the effective capability set of the calling thread.
func Effective() (uint64, error) {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}

	var data [2]unix.CapUserData

	if err := unix.Capget(&hdr, &data[0]); err != nil {
		return 0, err
	}

	return uint64(data[1].Effective)<<32 | uint64(data[0].Effective), nil
}

func noNewPrivs() error {
	_, _, errno := syscall.AllThreadsSyscall(unix.SYS_PRCTL, unix.PR_SET_NO_NEW_PRIVS, 1, 0)

	switch errno {
	case 0:
		return nil
	case syscall.ENOTSUP:
		err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0)
		logger.Warningf("no_new_privs set on the calling thread only")

		return err
	}

	return errno
}

// capset keeps hdr and data as pointers up to the syscall; the uintptr
// conversions happen in the call expression itself.
func capset(hdr *unix.CapUserHeader, data *unix.CapUserData) error {
	_, _, errno := syscall.AllThreadsSyscall(unix.SYS_CAPSET,
		uintptr(unsafe.Pointer(hdr)), uintptr(unsafe.Pointer(data)), 0)

	switch errno {
	case 0:
		return nil
	case syscall.ENOTSUP:
		err := unix.Capset(hdr, data)
		logger.Warningf("capabilities cleared on the calling thread only")

		return err
	}

	return errno
}
