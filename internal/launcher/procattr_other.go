//go:build !unix

package launcher

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return nil
}
