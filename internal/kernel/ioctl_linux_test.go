//go:build linux

package kernel

import "testing"

// Expected request numbers per <linux/ppp-ioctl.h>, computed independently
// of the ioc()/iow()/ior()/iowr() helpers under test.
func TestPPPIOCRequestNumbers(t *testing.T) {
	cases := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"PPPIOCGCHAN", pppIOCGChan, 0x80047437},
		{"PPPIOCATTCHAN", pppIOCAttChan, 0x40047438},
		{"PPPIOCCONNECT", pppIOCConnect, 0x4004743a},
		{"PPPIOCNEWUNIT", pppIOCNewUnit, 0xc004743e},
	}

	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s = 0x%x, want 0x%x", tc.name, tc.got, tc.want)
		}
	}
}
