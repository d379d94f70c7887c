// Package auth establishes guest and admin sessions.
package auth

import (
	"context"
	"net"
	"sync"

	"weddingplanner/logging"
)

var privateSubnets = []string{
	"0.0.0.0/8",
	"10.0.0.0/8",
	"127.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// AllowList is the set of origins admin identities may sign in from without
// a verified OAuth credential: private subnets plus the server's own addresses.
type AllowList struct {
	mu      sync.RWMutex
	subnets []*net.IPNet
	hosts   map[string]bool
}

func NewAllowList() *AllowList {
	a := &AllowList{hosts: make(map[string]bool)}
	for _, cidr := range privateSubnets {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		a.subnets = append(a.subnets, n)
	}
	return a
}

// Resolver looks up host addresses.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// AddHost adds the IPv4 addresses host resolves to. Resolution failures are
// logged and otherwise ignored.
func (a *AllowList) AddHost(ctx context.Context, resolver Resolver, host string) {
	log := logging.For("admin")
	ips, err := resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		log.Warn().Err(err).Str("host", host).Msg("failed to resolve host address")
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ip := range ips {
		a.hosts[ip.String()] = true
	}
	log.Info().Interface("addresses", ips).Msg("host addresses added to admin allow list")
}

// Contains reports whether ip is an allowed origin.
func (a *AllowList) Contains(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	if v4 := parsed.To4(); v4 != nil {
		parsed = v4
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.hosts[parsed.String()] {
		return true
	}
	for _, n := range a.subnets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}
