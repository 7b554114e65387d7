// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPBackend implements Backend against a running epdgd's admin HTTP
// surface (internal/adminapi). It carries no auth: the admin API is a
// local bench/operator surface, not internet-facing.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend builds a Backend talking to the admin API at baseURL,
// e.g. "http://127.0.0.1:8878".
func NewHTTPBackend(baseURL string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *HTTPBackend) do(method, path string, body any, out any) error {
	var reader bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reader).Encode(body); err != nil {
			return fmt.Errorf("iwlanctl: encoding request: %w", err)
		}
	}

	req, err := http.NewRequest(method, b.baseURL+path, &reader)
	if err != nil {
		return fmt.Errorf("iwlanctl: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("iwlanctl: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("iwlanctl: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("iwlanctl: decoding response from %s: %w", path, err)
	}
	return nil
}

// tunnelsResponse mirrors handleTunnels' JSON shape.
type tunnelsResponse struct {
	Slot  int              `json:"slot"`
	Calls []dataCallWireV1 `json:"calls"`
}

// dataCallWireV1 mirrors tunnelmgr.DataCallResponse's JSON encoding.
type dataCallWireV1 struct {
	ID            uint32 `json:"ID"`
	Cause         int    `json:"Cause"`
	InterfaceName string `json:"InterfaceName"`
	InternalIPv4  string `json:"InternalIPv4"`
	InternalIPv6  string `json:"InternalIPv6"`
}

func (d dataCallWireV1) toStatus(apn string) TunnelStatus {
	state := "UP"
	if d.InterfaceName == "" {
		state = "DOWN"
	}
	return TunnelStatus{
		ID:            d.ID,
		APN:           apn,
		State:         state,
		InterfaceName: d.InterfaceName,
		InternalIPv4:  d.InternalIPv4,
		InternalIPv6:  d.InternalIPv6,
		Cause:         d.Cause,
	}
}

func (b *HTTPBackend) GetTunnels(slot int) ([]TunnelStatus, error) {
	var resp tunnelsResponse
	path := fmt.Sprintf("/tunnels?slot=%d", slot)
	if err := b.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	statuses := make([]TunnelStatus, 0, len(resp.Calls))
	for _, c := range resp.Calls {
		statuses = append(statuses, c.toStatus(""))
	}
	return statuses, nil
}

type policyResponse struct {
	APN           string `json:"apn"`
	CanBringUp    bool   `json:"canBringUp"`
	RetryAtMillis int64  `json:"retryAtMillis"`
	LastFailCause int    `json:"lastFailCause"`
}

func (b *HTTPBackend) GetPolicy(slot int, apn string) (*PolicyStatus, error) {
	var resp policyResponse
	path := fmt.Sprintf("/policy/%s?slot=%d", url.PathEscape(apn), slot)
	if err := b.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &PolicyStatus{
		APN:           resp.APN,
		CanBringUp:    resp.CanBringUp,
		RetryAtMillis: resp.RetryAtMillis,
		LastFailCause: resp.LastFailCause,
	}, nil
}

type simulateSetupWireRequest struct {
	Slot         int    `json:"slot"`
	APN          string `json:"apn"`
	ProtocolIPv4 bool   `json:"protocolIPv4"`
	ProtocolIPv6 bool   `json:"protocolIPv6"`
	IsRoaming    bool   `json:"isRoaming"`
}

type simulateResponse struct {
	Result   string          `json:"result"`
	Response *dataCallWireV1 `json:"response"`
}

func (b *HTTPBackend) SimulateSetup(req SimulateSetupRequest) (*SimulateResult, error) {
	var resp simulateResponse
	wire := simulateSetupWireRequest{
		Slot: req.Slot, APN: req.APN,
		ProtocolIPv4: req.ProtocolIPv4, ProtocolIPv6: req.ProtocolIPv6,
		IsRoaming: req.IsRoaming,
	}
	if err := b.do(http.MethodPost, "/simulate/setup", wire, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(req.APN), nil
}

type simulateDeactivateWireRequest struct {
	Slot int    `json:"slot"`
	CID  uint32 `json:"cid"`
}

func (b *HTTPBackend) SimulateDeactivate(slot int, cid uint32) (*SimulateResult, error) {
	var resp simulateResponse
	wire := simulateDeactivateWireRequest{Slot: slot, CID: cid}
	if err := b.do(http.MethodPost, "/simulate/deactivate", wire, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(""), nil
}

func (r simulateResponse) toResult(apn string) *SimulateResult {
	out := &SimulateResult{Result: r.Result}
	if r.Response != nil {
		status := r.Response.toStatus(apn)
		out.Response = &status
	}
	return out
}
