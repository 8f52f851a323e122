package sdk

import (
	"context"
	"fmt"
	"net/url"
)

func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	var servers []Server
	err := c.get(ctx, "/api/client/servers", &servers)
	return servers, err
}

func (c *Client) GetServer(ctx context.Context, id string) (*Server, error) {
	var server Server
	if err := c.get(ctx, "/api/client/servers/"+url.PathEscape(id), &server); err != nil {
		return nil, err
	}
	return &server, nil
}

// GetResources fetches one resource sample for a server.
func (c *Client) GetResources(ctx context.Context, id string) (ServerStats, error) {
	var resp resourcesResponse
	if err := c.get(ctx, fmt.Sprintf("/api/client/servers/%s/resources", url.PathEscape(id)), &resp); err != nil {
		return ServerStats{}, err
	}
	a := resp.Attributes
	return ServerStats{
		CPUUsagePercent:    a.Resources.CPUAbsolute,
		MemoryUsageInBytes: a.Resources.MemoryBytes,
		DiskUsageInBytes:   a.Resources.DiskBytes,
		NetworkRxBytes:     a.Resources.NetworkRxBytes,
		NetworkTxBytes:     a.Resources.NetworkTxBytes,
		UptimeMs:           a.Resources.Uptime,
		PowerState:         a.CurrentState,
		IsSuspended:        a.IsSuspended,
	}, nil
}

// Power sends start, stop, restart or kill.
func (c *Client) Power(ctx context.Context, id, signal string) error {
	return c.post(ctx, fmt.Sprintf("/api/client/servers/%s/power", url.PathEscape(id)), map[string]string{"signal": signal}, nil)
}

func (c *Client) SendCommand(ctx context.Context, id, command string) error {
	return c.post(ctx, fmt.Sprintf("/api/client/servers/%s/command", url.PathEscape(id)), map[string]string{"command": command}, nil)
}

func (c *Client) ListFiles(ctx context.Context, id, directory string) ([]FileEntry, error) {
	var files []FileEntry
	path := fmt.Sprintf("/api/client/servers/%s/files?directory=%s", url.PathEscape(id), url.QueryEscape(directory))
	err := c.get(ctx, path, &files)
	return files, err
}

func (c *Client) ConsoleURL(id string) (string, error) {
	return c.GetWebSocketURL(fmt.Sprintf("/api/client/servers/%s/ws", id))
}

func (c *Client) CreateServer(ctx context.Context, req CreateServerRequest) (*Server, error) {
	var server Server
	if err := c.post(ctx, "/api/application/servers", req, &server); err != nil {
		return nil, err
	}
	return &server, nil
}

func (c *Client) DeleteServer(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/application/servers/"+url.PathEscape(id))
}

func (c *Client) SetSuspended(ctx context.Context, id string, suspended bool) error {
	action := "unsuspend"
	if suspended {
		action = "suspend"
	}
	return c.post(ctx, fmt.Sprintf("/api/application/servers/%s/%s", url.PathEscape(id), action), nil, nil)
}

func (c *Client) GetPortRange(ctx context.Context) (*PortRange, error) {
	var pr PortRange
	err := c.get(ctx, "/api/application/port-range", &pr)
	return &pr, err
}

func (c *Client) SetPortRange(ctx context.Context, start, end int) error {
	return c.put(ctx, "/api/application/port-range", PortRange{Start: start, End: end})
}

func (c *Client) CheckUpdates(ctx context.Context) (*UpdateInfo, error) {
	var info UpdateInfo
	err := c.get(ctx, "/api/application/version", &info)
	return &info, err
}
