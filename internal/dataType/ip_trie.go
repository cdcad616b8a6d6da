package dataType

import "net"

// TrieNode is a binary prefix trie over IP addresses. IPv4 and IPv6
// networks live in separate subtrees so a v4 prefix never matches a v6 address.
type TrieNode struct {
	children [2]*TrieNode
	isEnd    bool
	v4       *TrieNode
	v6       *TrieNode
}

func (node *TrieNode) root(v4 bool) *TrieNode {
	if v4 {
		if node.v4 == nil {
			node.v4 = &TrieNode{}
		}
		return node.v4
	}
	if node.v6 == nil {
		node.v6 = &TrieNode{}
	}
	return node.v6
}

// Insert adds a CIDR network to the trie
func (node *TrieNode) Insert(ipNet *net.IPNet) {
	ones, _ := ipNet.Mask.Size()
	ip := ipNet.IP.To4()
	v4 := ip != nil
	if !v4 {
		ip = ipNet.IP.To16()
		if ip == nil {
			return
		}
	}
	current := node.root(v4)
	for i := 0; i < ones; i++ {
		bit := (ip[i/8] >> (7 - uint(i%8))) & 1
		if current.children[bit] == nil {
			current.children[bit] = &TrieNode{}
		}
		current = current.children[bit]
	}
	current.isEnd = true
}

// Search reports whether ip falls inside any inserted network
func (node *TrieNode) Search(ip net.IP) bool {
	if ip == nil {
		return false
	}
	var current *TrieNode
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		current = node.v4
	} else {
		ip = ip.To16()
		current = node.v6
	}
	if current == nil {
		return false
	}
	bits := len(ip) * 8
	for i := 0; i < bits; i++ {
		if current.isEnd {
			return true
		}
		bit := (ip[i/8] >> (7 - uint(i%8))) & 1
		if current.children[bit] == nil {
			return false
		}
		current = current.children[bit]
	}
	return current.isEnd
}

// Empty reports whether nothing was ever inserted
func (node *TrieNode) Empty() bool {
	return node == nil || (node.v4 == nil && node.v6 == nil)
}
