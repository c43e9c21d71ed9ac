package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to a casctld endpoint.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Spawn creates a controller instance on the endpoint.
func (c *Client) Spawn(req SpawnRequest) (*SpawnResponse, error) {
	var resp SpawnResponse
	if err := c.client.Call("Casctl.Spawn", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns all instances registered with the endpoint.
func (c *Client) List() (*ListResponse, error) {
	var resp ListResponse
	if err := c.client.Call("Casctl.List", ListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop shuts one instance's daemon down.
func (c *Client) Stop(req StopRequest) (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Casctl.Stop", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clean tears down every instance on the endpoint.
func (c *Client) Clean() (*CleanResponse, error) {
	var resp CleanResponse
	if err := c.client.Call("Casctl.Clean", CleanRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
