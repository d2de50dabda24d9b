// Package netutil collects small networking helpers shared by every
// jinshu service: discovering the local interface address (used when
// a service is configured to advertise "0.0.0.0") and waiting for a
// shutdown signal, grounded on jinshu-utils/src/lib.rs.
package netutil

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
)

// LocalIPAddrs returns the non-loopback IP addresses of every local
// network interface, the Go analogue of get_all_ip_addr (which uses
// if_addrs in the original). The stdlib net package already exposes
// this; no third-party interface-enumeration library is warranted
// here — see DESIGN.md.
func LocalIPAddrs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("netutil: list interface addresses: %w", err)
	}

	var ips []net.IP
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		ips = append(ips, ipNet.IP)
	}
	return ips, nil
}

// ShutdownSignal returns a context canceled on SIGINT or SIGTERM.
func ShutdownSignal() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
