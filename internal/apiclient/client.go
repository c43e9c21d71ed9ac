package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	ma "github.com/multiformats/go-multiaddr"
)

// Identity describes the daemon node as reported by its API.
type Identity struct {
	ID           string   `json:"ID"`
	AgentVersion string   `json:"AgentVersion"`
	Addresses    []string `json:"Addresses"`
}

// Client is the handle to a running daemon's HTTP API, annotated with the
// resolved API and gateway endpoints and, after Start completes, the node
// identity.
type Client struct {
	httpClient *http.Client

	apiAddr     string
	gatewayAddr string

	APIHost     string
	APIPort     int
	GatewayHost string
	GatewayPort int
	Identity    Identity
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New constructs a client from the daemon's announced API address. Both
// multiaddr text (/ip4/127.0.0.1/tcp/5001) and plain host:port are accepted.
func New(apiAddr string, opts ...Option) (*Client, error) {
	host, port, err := DecodeAddr(apiAddr)
	if err != nil {
		return nil, fmt.Errorf("decode api address: %w", err)
	}
	client := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiAddr:    apiAddr,
		APIHost:    host,
		APIPort:    port,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// APIAddr returns the address text the client was constructed from.
func (c *Client) APIAddr() string {
	return c.apiAddr
}

// GatewayAddr returns the annotated gateway address text, if any.
func (c *Client) GatewayAddr() string {
	return c.gatewayAddr
}

// SetGateway annotates the client with the daemon's gateway endpoint.
func (c *Client) SetGateway(addr string) error {
	host, port, err := DecodeAddr(addr)
	if err != nil {
		return fmt.Errorf("decode gateway address: %w", err)
	}
	c.gatewayAddr = addr
	c.GatewayHost = host
	c.GatewayPort = port
	return nil
}

// FetchIdentity asks the daemon for its node identity and records it on the
// client for caller convenience.
func (c *Client) FetchIdentity(ctx context.Context) (Identity, error) {
	var identity Identity
	resp, err := c.post(ctx, "id")
	if err != nil {
		return identity, fmt.Errorf("fetch identity: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return identity, fmt.Errorf("fetch identity: unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return identity, fmt.Errorf("decode identity: %w", err)
	}
	c.Identity = identity
	return identity, nil
}

// Shutdown asks the daemon to stop. The daemon commonly dies before finishing
// the response, so a dropped connection counts as success.
func (c *Client) Shutdown(ctx context.Context) error {
	resp, err := c.post(ctx, "shutdown")
	if err != nil {
		if isConnectionDropped(err) {
			return nil
		}
		return fmt.Errorf("remote shutdown: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) post(ctx context.Context, command string) (*http.Response, error) {
	url := fmt.Sprintf("http://%s/api/v0/%s", net.JoinHostPort(c.APIHost, strconv.Itoa(c.APIPort)), command)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func isConnectionDropped(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

var addrProtocols = []int{ma.P_IP4, ma.P_IP6, ma.P_DNS4, ma.P_DNS6, ma.P_DNS}

// DecodeAddr resolves an announced address to a dialable host and port.
func DecodeAddr(addr string) (string, int, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", 0, errors.New("empty address")
	}

	if strings.HasPrefix(addr, "/") {
		maddr, err := ma.NewMultiaddr(addr)
		if err != nil {
			return "", 0, err
		}
		var host string
		for _, proto := range addrProtocols {
			if value, err := maddr.ValueForProtocol(proto); err == nil && value != "" {
				host = value
				break
			}
		}
		if host == "" {
			return "", 0, fmt.Errorf("no host component in %q", addr)
		}
		portText, err := maddr.ValueForProtocol(ma.P_TCP)
		if err != nil {
			return "", 0, fmt.Errorf("no tcp port in %q: %w", addr, err)
		}
		port, err := strconv.Atoi(portText)
		if err != nil {
			return "", 0, fmt.Errorf("parse port %q: %w", portText, err)
		}
		return host, port, nil
	}

	host, portText, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		return "", 0, fmt.Errorf("parse port %q: %w", portText, err)
	}
	return host, port, nil
}
