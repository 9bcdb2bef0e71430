// Package rpcclient provides a JSON-RPC 2.0 client for klingswapd.
package rpcclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Klingon-tech/klingswap/internal/auth"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/rpc"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Client is a JSON-RPC 2.0 HTTP client.
type Client struct {
	endpoint string
	http     *http.Client

	mu      sync.Mutex
	chainID string // Signing domain, fetched on first signed call.
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 10*time.Second)
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsCode reports whether err is an RPCError with the given code.
func IsCode(err error, code int) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded.
func (c *Client) Call(method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}

// SetChainID pins the chain signed requests are bound to, skipping the
// lookup SignedCall would otherwise make.
func (c *Client) SetChainID(id string) {
	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
}

// ChainID returns the chain id of the node, asking it once.
func (c *Client) ChainID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainID != "" {
		return c.chainID, nil
	}
	var info rpc.ExchangeInfoResult
	if err := c.Call(rpc.MethodExchangeGetInfo, nil, &info); err != nil {
		return "", fmt.Errorf("fetch chain id: %w", err)
	}
	if info.ChainID == "" {
		return "", errors.New("node reported an empty chain id")
	}
	c.chainID = info.ChainID
	return c.chainID, nil
}

// SignedCall signs payload for method with signer and nonce and invokes
// the method with the payload fields plus the "auth" envelope.
func (c *Client) SignedCall(method string, payload interface{}, signer crypto.Signer, nonce uint64, result interface{}) error {
	chainID, err := c.ChainID()
	if err != nil {
		return err
	}
	env, err := auth.Sign(signer, chainID, method, payload, nonce)
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	params := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &params); err != nil {
		return fmt.Errorf("payload must be a JSON object: %w", err)
	}
	envData, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal auth: %w", err)
	}
	params["auth"] = envData
	return c.Call(method, params, result)
}

// Balance fetches the account of addr.
func (c *Client) Balance(addr types.Address) (*ledger.Balance, error) {
	var bal ledger.Balance
	if err := c.Call(rpc.MethodGetBalance, rpc.AddressParam{Address: addr.String()}, &bal); err != nil {
		return nil, err
	}
	return &bal, nil
}

// NextNonce returns the nonce the next signed call from addr must carry.
func (c *Client) NextNonce(addr types.Address) (uint64, error) {
	bal, err := c.Balance(addr)
	if err != nil {
		return 0, err
	}
	return bal.Nonce + 1, nil
}
