package regbus

import (
	"testing"

	logger "github.com/d2r2/go-logger"
)

func TestOpenD2r2(t *testing.T) {
	b := OpenD2r2(1)
	if b.line != 1 || len(b.devs) != 0 {
		t.Fatalf("OpenD2r2 = %+v", b)
	}
	// the level change in OpenD2r2 relies on this name being registered
	if err := logger.ChangePackageLogLevel("i2c", logger.InfoLevel); err != nil {
		t.Errorf("go-i2c logger lookup: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close with no handles: %v", err)
	}
	if _, err := b.ReadInto(0x68, 0x75, nil); err != ErrEmptyBuffer {
		t.Errorf("ReadInto(nil) err = %v, want ErrEmptyBuffer", err)
	}
}
