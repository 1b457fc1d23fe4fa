// Package dns resolves the signaling server's hostname, falling back to
// public resolvers when the system resolver fails (captive portals, broken
// VPN DNS).
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Queried when the local lookup fails. Well-known public providers.
var publicDNS = []string{
	"1.1.1.1", // Cloudflare
	"1.0.0.1", // Cloudflare
	"8.8.8.8", // Google
	"8.8.4.4", // Google
	"9.9.9.9", // Quad9
}

// Lookup resolves a hostname to an IP address, preferring the system
// resolver and racing public DNS servers on failure.
func Lookup(address string) (string, error) {
	ip, err := localLookupIP(address)
	if err == nil && ip != "" {
		return ip, nil
	}
	return remoteLookupWithRace(address)
}

func localLookupIP(address string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	r := &net.Resolver{}
	ips, err := r.LookupHost(ctx, address)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.New("no IP addresses found")
	}

	// Prefer IPv4.
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}

func remoteLookupWithRace(address string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	results := make(chan result, len(publicDNS))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, server := range publicDNS {
		go func(server string) {
			ip, err := remoteLookupIP(ctx, address, server)
			results <- result{ip: ip, err: err}
		}(server)
	}

	var lastErr error
	for range publicDNS {
		select {
		case res := <-results:
			if res.err == nil && res.ip != "" {
				return res.ip, nil
			}
			lastErr = res.err
		case <-ctx.Done():
			return "", fmt.Errorf("dns lookup timed out for %s", address)
		}
	}
	if lastErr == nil {
		lastErr = errors.New("all public dns lookups failed")
	}
	return "", lastErr
}

func remoteLookupIP(ctx context.Context, address, server string) (string, error) {
	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := net.Dialer{Timeout: 2 * time.Second}
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		},
	}

	ips, err := r.LookupHost(ctx, address)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.New("no IP addresses found")
	}
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}
