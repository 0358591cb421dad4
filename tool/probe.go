package tool

import (
	"net"
	"net/url"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ProbeTimeout bounds both the ICMP ping and the TCP fallback dial.
var ProbeTimeout = 3 * time.Second

// ServiceReachable checks whether the upload service host answers at all.
// It tries an unprivileged ICMP ping first; ICMP is often filtered, so a
// failed ping falls back to a TCP dial against the service port.
func ServiceReachable(serviceURL string) bool {
	u, err := url.Parse(serviceURL)
	if err != nil || u.Hostname() == "" {
		DefaultLogger.Warnf("ServiceReachable: invalid service URL %q: %v", serviceURL, err)
		return false
	}
	host := u.Hostname()

	if pingHost(host) {
		return true
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), ProbeTimeout)
	if err != nil {
		DefaultLogger.Debugf("ServiceReachable: tcp probe to %s:%s failed: %v", host, port, err)
		return false
	}
	if err := conn.Close(); err != nil {
		DefaultLogger.Debugf("Failed to close probe connection: %v", err)
	}
	return true
}

func pingHost(host string) bool {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return false
	}
	pinger.Count = 1
	pinger.Timeout = ProbeTimeout
	pinger.SetPrivileged(false)
	if err := pinger.Run(); err != nil {
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}
