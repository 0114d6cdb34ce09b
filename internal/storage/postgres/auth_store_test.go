package postgres

import "testing"

func TestToInet(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
		bits  int
	}{
		{"192.0.2.10", true, 32},
		{"2001:db8::1", true, 128},
		{"", false, 0},
		{"not-an-ip", false, 0},
	}
	for _, tt := range tests {
		got := toInet(tt.addr)
		if got.Valid != tt.valid {
			t.Errorf("toInet(%q).Valid = %v; want %v", tt.addr, got.Valid, tt.valid)
			continue
		}
		if !tt.valid {
			continue
		}
		ones, _ := got.IPNet.Mask.Size()
		if ones != tt.bits {
			t.Errorf("toInet(%q) mask = /%d; want /%d", tt.addr, ones, tt.bits)
		}
		if got.IPNet.IP.String() != tt.addr {
			t.Errorf("toInet(%q) IP = %s", tt.addr, got.IPNet.IP)
		}
	}
}
