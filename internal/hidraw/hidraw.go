//go:build linux

// Package hidraw opens a /dev/hidrawN node and moves raw HID reports in
// both directions. It knows nothing about the cooler protocol; decoded
// meaning belongs to the layers above.
package hidraw

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// devInfo mirrors the kernel's struct hidraw_devinfo.
type devInfo struct {
	Bustype uint32
	Vendor  int16
	Product int16
}

// ior builds an _IOR('H', nr, size) ioctl request number.
func ior(nr, size uintptr) uintptr {
	const (
		dirRead   = 2
		typeShift = 8
		sizeShift = 16
		dirShift  = 30
	)
	return (dirRead << dirShift) | (size << sizeShift) | ('H' << typeShift) | nr
}

// hidIOCGRawInfo is HIDIOCGRAWINFO, the bustype/vendor/product query.
var hidIOCGRawInfo = ior(0x03, unsafe.Sizeof(devInfo{}))

// Info identifies the device behind a hidraw node.
type Info struct {
	Bustype   uint32
	VendorID  uint16
	ProductID uint16
}

// Device is an open hidraw node.
type Device struct {
	f    *os.File
	path string
	info Info
}

// Open opens a hidraw node and reads its device identity.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("hidraw: open %s: %w", path, err)
	}

	info, err := rawInfo(f.Fd())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hidraw: HIDIOCGRAWINFO %s: %w", path, err)
	}

	return &Device{f: f, path: path, info: info}, nil
}

func rawInfo(fd uintptr) (Info, error) {
	var di devInfo
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, hidIOCGRawInfo, uintptr(unsafe.Pointer(&di))); errno != 0 {
		return Info{}, errno
	}
	return Info{
		Bustype:   di.Bustype,
		VendorID:  uint16(di.Vendor),
		ProductID: uint16(di.Product),
	}, nil
}

// Info returns the identity read at open time.
func (d *Device) Info() Info {
	return d.info
}

// Path returns the node this device was opened from.
func (d *Device) Path() string {
	return d.path
}

// Write sends one output report. Blocks until the kernel accepts the
// full report.
func (d *Device) Write(p []byte) (int, error) {
	return d.f.Write(p)
}

// Close closes the node. A blocked ReadLoop is unblocked by this.
func (d *Device) Close() error {
	return d.f.Close()
}

// ReadLoop delivers each inbound report to handler until the context is
// cancelled or the node goes away (device removal, Close). The handler
// owns the passed slice.
func (d *Device) ReadLoop(ctx context.Context, handler func([]byte)) error {
	buf := make([]byte, 4096)

	for {
		n, err := d.f.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("hidraw: read %s: %w", d.path, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		report := make([]byte, n)
		copy(report, buf[:n])
		handler(report)
	}
}
