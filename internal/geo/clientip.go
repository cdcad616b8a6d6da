package geo

import (
	"form_guard/internal/dataType"
	"net"
	"net/http"
	"strings"
)

// ClientIP picks the visitor address from the configured forwarding headers
// in order, taking the first entry of a comma separated chain, and falls
// back to the peer address. With a non-empty trusted set, forwarding headers
// are only honored when the peer is a trusted proxy.
func ClientIP(r *http.Request, headers []string, trusted *dataType.TrieNode) string {
	peer := PeerIP(r)

	if trusted.Empty() || trusted.Search(net.ParseIP(peer)) {
		for _, headerName := range headers {
			ipVal := strings.TrimSpace(r.Header.Get(headerName))
			if ipVal == "" {
				continue
			}
			if strings.Contains(ipVal, ",") {
				parts := strings.Split(ipVal, ",")
				ipVal = strings.TrimSpace(parts[0])
			}
			if ipVal != "" {
				return ipVal
			}
		}
	}

	return peer
}

// PeerIP is the address of the directly connected client.
func PeerIP(r *http.Request) string {
	ipStr, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ipStr
}
