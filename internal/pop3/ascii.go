package pop3

// MaxUsernameLength is the maximum length, in bytes, of a username (§3).
const MaxUsernameLength = 40

// IsPrintableASCII reports whether b is a printable ASCII byte, space
// through tilde inclusive.
func IsPrintableASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

// PrintableASCIIFromBytes scans buf left to right and reports the first
// byte that is not printable ASCII. ok is false iff such a byte exists,
// in which case offender holds it.
func PrintableASCIIFromBytes(buf []byte) (offender byte, ok bool) {
	for _, b := range buf {
		if !IsPrintableASCII(b) {
			return b, false
		}
	}
	return 0, true
}

// IsValidUsername enforces the username contract from §3: 1-40 bytes,
// first byte in [A-Za-z_], remaining bytes in [a-z0-9_]. Uppercase letters
// are rejected after position 0 — this is the stated contract, not a bug.
func IsValidUsername(b []byte) bool {
	if len(b) == 0 || len(b) > MaxUsernameLength {
		return false
	}
	if !isUsernameFirstByte(b[0]) {
		return false
	}
	for _, c := range b[1:] {
		if !isUsernameTailByte(c) {
			return false
		}
	}
	return true
}

func isUsernameFirstByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '_'
}

func isUsernameTailByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}
