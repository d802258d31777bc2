//go:build linux

// internal/hidraw/hidraw_test.go
package hidraw

import (
	"testing"
	"unsafe"
)

func TestDevInfoLayout(t *testing.T) {
	// Must match the kernel's struct hidraw_devinfo byte for byte.
	if size := unsafe.Sizeof(devInfo{}); size != 8 {
		t.Fatalf("devInfo size %d, want 8", size)
	}
}

func TestHIDIOCGRawInfoEncoding(t *testing.T) {
	// Known-good value of _IOR('H', 0x03, struct hidraw_devinfo).
	if hidIOCGRawInfo != 0x80084803 {
		t.Fatalf("HIDIOCGRAWINFO encoded as 0x%08X, want 0x80084803", hidIOCGRawInfo)
	}
}
