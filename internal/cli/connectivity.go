package cli

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

const dialTimeout = 2 * time.Second

// dialCheck reports the API host as reachable when a TCP connection to it
// can be opened within timeout.
type dialCheck struct {
	addr    string
	timeout time.Duration
}

func newDialCheck(apiURL string, timeout time.Duration) (*dialCheck, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("api url %q has no host", apiURL)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		case "http":
			port = "80"
		default:
			return nil, fmt.Errorf("api url %q: unsupported scheme %q", apiURL, u.Scheme)
		}
	}
	return &dialCheck{addr: net.JoinHostPort(host, port), timeout: timeout}, nil
}

func (d *dialCheck) Online() bool {
	conn, err := (&net.Dialer{Timeout: d.timeout}).Dial("tcp", d.addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
