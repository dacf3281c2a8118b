package member

import "golang.org/x/sys/unix"

// unixTcGetpgrp returns the process group currently holding the foreground
// of the terminal identified by fd, via the TIOCGPGRP ioctl.
func unixTcGetpgrp(fd uintptr) (int, error) {
	return unix.IoctlGetInt(int(fd), unix.TIOCGPGRP)
}
