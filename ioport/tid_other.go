//go:build !linux

package ioport

// gettid has no thread id to report outside Linux, so every caller looks like
// the owner and the cross-thread check never fires. Guards, including those
// on simulated backends, only enforce thread binding on Linux.
func gettid() int {
	return 0
}
