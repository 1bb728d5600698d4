//go:build !linux

package blockio

func adviseSequential(any) {}
