package server

import (
	"fmt"
	"net"
)

type portSource interface {
	GetPortRange() (int, int, error)
	UsedPorts() (map[int]bool, error)
}

// AllocatePort returns the first port of the configured range that is neither
// assigned to a server nor bound on this host.
func AllocatePort(store portSource) (int, error) {
	startPort, endPort, err := store.GetPortRange()
	if err != nil {
		return 0, fmt.Errorf("error reading port range: %w", err)
	}

	usedPorts, err := store.UsedPorts()
	if err != nil {
		return 0, err
	}

	for port := startPort; port <= endPort; port++ {
		if usedPorts[port] {
			continue
		}
		if isPortAvailable(port) {
			return port, nil
		}
	}

	return 0, fmt.Errorf("no free ports in range %d-%d", startPort, endPort)
}

func isPortAvailable(port int) bool {
	conn, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
