package pop3

import "testing"

func TestIsPrintableASCII(t *testing.T) {
	tests := []struct {
		b    byte
		want bool
	}{
		{0x19, false},
		{0x20, true},
		{'A', true},
		{0x7E, true},
		{0x7F, false},
	}
	for _, tt := range tests {
		if got := IsPrintableASCII(tt.b); got != tt.want {
			t.Errorf("IsPrintableASCII(%#x) = %v, want %v", tt.b, got, tt.want)
		}
	}
}

func TestPrintableASCIIFromBytes(t *testing.T) {
	if _, ok := PrintableASCIIFromBytes([]byte("USER alice")); !ok {
		t.Error("expected all-printable slice to be ok")
	}
	offender, ok := PrintableASCIIFromBytes([]byte("USER\talice"))
	if ok {
		t.Fatal("expected tab byte to be rejected")
	}
	if offender != '\t' {
		t.Errorf("offender = %#x, want tab", offender)
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"simple lowercase", "alice", true},
		{"leading underscore", "_alice", true},
		{"leading uppercase ok", "Alice", true},
		{"digits after first byte", "a1234", true},
		{"uppercase after first byte rejected", "aBc", false},
		{"empty", "", false},
		{"too long", string(make([]byte, 41)), false},
		{"max length", "a" + string(repeat('a', 39)), true},
		{"leading digit invalid", "1alice", false},
		{"embedded space invalid", "al ice", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidUsername([]byte(tt.in)); got != tt.want {
				t.Errorf("IsValidUsername(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
