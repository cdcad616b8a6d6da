package dataType

import (
	"net"
	"testing"
)

func TestTrieNode(t *testing.T) {
	trie := &TrieNode{}
	if !trie.Empty() {
		t.Fatalf("new trie should be empty")
	}
	for _, cidr := range []string{"10.0.0.0/8", "192.168.1.10/32", "2001:db8::/32"} {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			t.Fatalf("ParseCIDR(%s): %v", cidr, err)
		}
		trie.Insert(ipNet)
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"192.168.1.10", true},
		{"192.168.1.11", false},
		{"2001:db8::1", true},
		{"2001:db9::1", false},
		{"::ffff:10.0.0.1", true},
	}
	for _, tt := range tests {
		if got := trie.Search(net.ParseIP(tt.ip)); got != tt.want {
			t.Errorf("Search(%s) = %v, want %v", tt.ip, got, tt.want)
		}
	}
	if trie.Search(nil) {
		t.Errorf("nil IP must not match")
	}
}
