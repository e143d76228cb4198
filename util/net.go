package util

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeAddr turns a target given as "host:port" or a bare port into a
// dialable "host:port", defaulting the host to localhost.
func NormalizeAddr(target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("empty target address")
	}
	if !strings.Contains(target, ":") {
		if _, err := strconv.Atoi(target); err != nil {
			return "", fmt.Errorf("bad target port %q: %v", target, err)
		}
		return "localhost:" + target, nil
	}
	host, port, found := strings.Cut(target, ":")
	if !found || port == "" {
		return "", fmt.Errorf("bad target %q (want host:port)", target)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("bad target port %q: %v", port, err)
	}
	if host == "" {
		host = "localhost"
	}
	return host + ":" + port, nil
}
