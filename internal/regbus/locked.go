package regbus

import "sync"

// Locked serializes access to a Bus shared by several devices or goroutines.
// Each call holds the lock for exactly one transaction.
type Locked struct {
	mu  sync.Mutex
	bus Bus
}

func NewLocked(bus Bus) *Locked {
	return &Locked{bus: bus}
}

func (l *Locked) Write(addr uint16, reg byte, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bus.Write(addr, reg, data)
}

func (l *Locked) ReadInto(addr uint16, reg byte, buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bus.ReadInto(addr, reg, buf)
}

func (l *Locked) ReadSingle(addr uint16, reg byte) (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bus.ReadSingle(addr, reg)
}

