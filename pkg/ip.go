package pkg

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
)

var (
	localDockerIpRegex = regexp.MustCompile(`^172\.\d{1,3}\.0\.1(:\d{1,5})?$`)
)

func IPIsLocal(ipAddr string) bool {
	if ipAddr == "::1" || strings.HasPrefix(ipAddr, "127.0.0.1") || strings.HasPrefix(ipAddr, "[::1]:") {
		return true
	}
	// caller within a docker network
	return localDockerIpRegex.MatchString(ipAddr)
}

// ReadUserIP resolves the client address, preferring the first hop of
// X-Forwarded-For set by the reverse proxy.
func ReadUserIP(r *http.Request) (string, error) {
	ipAddr := ""
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ipAddr = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if ipAddr == "" {
		ipAddr = strings.TrimSpace(r.Header.Get("X-Real-Ip"))
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	if IPIsLocal(ipAddr) {
		return "localhost", nil
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		ipAddr = host
	}

	if ip := net.ParseIP(ipAddr); ip == nil {
		return "", fmt.Errorf("ip addr %s is invalid", ipAddr)
	}

	return ipAddr, nil
}
