package pop3

import (
	"strings"
	"testing"
)

func TestResponseBytes(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{"ok with message", OK("alice"), "+OK alice\r\n"},
		{"ok empty", OKEmpty(), "+OK\r\n"},
		{"err with message", Err("Wrong username or password"), "-ERR Wrong username or password\r\n"},
		{"stat", OKStat(2, 20), "+OK 2 20\r\n"},
		{"list one", OKListOne(1, 4), "+OK 1 4\r\n"},
		{"deleted", OKDeleted(1), "+OK 1 messages deleted\r\n"},
		{"deleted error", ErrDeleted(0), "-ERR 0 messages deleted\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.resp.Bytes()); got != tt.want {
				t.Errorf("Bytes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponseTruncatesLongMessage(t *testing.T) {
	resp := Err(strings.Repeat("x", 200))
	b := resp.Bytes()
	if len(b) > 100 {
		t.Fatalf("response length = %d, want <= 100", len(b))
	}
	if !strings.HasSuffix(string(b), "\r\n") {
		t.Errorf("response must end with CRLF, got %q", b)
	}
}
