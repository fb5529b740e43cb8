//go:build !linux

package sched

func NewProvider() Provider {
	return Noop{}
}

func NewPreemptionCounter() PreemptionCounter {
	return Noop{}
}
