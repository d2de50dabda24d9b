package rpc

import (
	"fmt"
	"net"

	"github.com/jinshuio/jinshu/internal/netutil"
	"github.com/sirupsen/logrus"
)

// ServiceConfig is the listener configuration shared by every jinshu
// service, grounded on jinshu-rpc/src/config.rs's ServiceConfig.
type ServiceConfig struct {
	ServiceName string `mapstructure:"service_name"`

	// PublicHost is the host other services should use to reach this
	// one. "0.0.0.0" means "pick a local interface address".
	PublicHost string `mapstructure:"public_host"`

	ListenIP   string `mapstructure:"listen_ip"`
	ListenPort int    `mapstructure:"listen_port"`
}

// TryBind opens the configured listener and derives the externally
// reachable base URL other services should register for this one,
// mirroring ServiceConfig::try_bind.
func (c ServiceConfig) TryBind() (net.Listener, string, error) {
	address := net.JoinHostPort(c.ListenIP, fmt.Sprint(c.ListenPort))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, "", fmt.Errorf("rpc: bind %s: %w", address, err)
	}

	port := listener.Addr().(*net.TCPAddr).Port

	host := c.PublicHost
	if ip := net.ParseIP(c.PublicHost); ip != nil && ip.IsUnspecified() {
		ips, err := netutil.LocalIPAddrs()
		if err != nil {
			listener.Close()
			return nil, "", err
		}
		if len(ips) == 0 {
			listener.Close()
			return nil, "", fmt.Errorf("rpc: failed to get local interface ip address, please specify 'public_host' in the configuration file")
		}
		host = ips[0].String()
		logrus.WithField("ip", host).Info("the public host is an unspecified address, using local interface ip address")
	}

	uri := fmt.Sprintf("http://%s/", net.JoinHostPort(host, fmt.Sprint(port)))
	return listener, uri, nil
}
