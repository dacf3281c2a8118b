package main

import (
	"os"
	"syscall"
)

// ownedBy reports whether the /proc/<pid> directory stat info belongs to uid.
func ownedBy(info os.FileInfo, uid int) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return int(st.Uid) == uid
}
