// Package netdiscover finds the host's public-facing IPv4 address for ICE
// candidate advertisement, falling back to interface enumeration when
// PUBLIC_IP isn't set.
package netdiscover

import (
	"fmt"
	"net"
	"os"
)

// PublicIP returns the PUBLIC_IP environment variable if set and valid,
// otherwise the first non-loopback, non-link-local, non-broadcast, up IPv4
// interface address found. Modeled on original_source/src/main.rs's
// select_host_address, extended to also skip down interfaces.
func PublicIP() (net.IP, error) {
	if env := os.Getenv("PUBLIC_IP"); env != "" {
		ip := net.ParseIP(env)
		if ip == nil {
			return nil, fmt.Errorf("netdiscover: PUBLIC_IP %q is not a valid IP", env)
		}
		return ip, nil
	}
	return discoverInterfaceIP()
}

func discoverInterfaceIP() (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("netdiscover: list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			if ip4.IsLoopback() || ip4.IsLinkLocalUnicast() || ip4.Equal(net.IPv4bcast) {
				continue
			}
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("netdiscover: no usable non-loopback IPv4 interface found")
}
