// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package adminapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/eventbus"
	"iwlan.dev/epdgctl/internal/tunnelmgr"
)

// resolveSlot reads the "slot" query parameter, defaulting to 0 when the
// caller didn't specify one; this is a read-only debug surface so an
// unknown slot simply reports "not found" rather than erroring loudly.
func (s *Server) resolveSlot(r *http.Request) (*SlotServices, bool) {
	slot := 0
	if raw := r.URL.Query().Get("slot"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		slot = n
	}
	sv, ok := s.slots[slot]
	return sv, ok
}

// handleTunnels implements GET /tunnels: the current call list for a slot
// (spec §6 requestDataCallList, exposed read-only for operators).
func (s *Server) handleTunnels(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.resolveSlot(r)
	if !ok || sv.Manager == nil {
		http.Error(w, "unknown slot", http.StatusNotFound)
		return
	}

	done := make(chan struct{})
	var list []*tunnelmgr.DataCallResponse
	sv.Manager.RequestDataCallList(func(_ tunnelmgr.Result, calls []*tunnelmgr.DataCallResponse) {
		list = calls
		close(done)
	})
	<-done
	writeJSON(w, http.StatusOK, map[string]any{"slot": sv.Slot, "calls": list})
}

// handlePolicy implements GET /policy/{apn}: a snapshot of the Error
// Policy Engine's view of one APN (spec §4.3), for debugging retry
// throttling without waiting on a real failure.
func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.resolveSlot(r)
	if !ok || sv.Policy == nil {
		http.Error(w, "unknown slot", http.StatusNotFound)
		return
	}
	apn := mux.Vars(r)["apn"]

	writeJSON(w, http.StatusOK, map[string]any{
		"slot":          sv.Slot,
		"apn":           apn,
		"canBringUp":    sv.Policy.CanBringUpTunnel(apn),
		"retryAtMillis": sv.Policy.GetCurrentRetryTime(apn),
		"lastFailCause": sv.Policy.GetDataFailCause(apn),
	})
}

// carrierConfigRequest is the test-only POST /carrierconfig payload: a
// slot selector plus the decoded Bundle to push, bypassing whatever
// real platform carrier-config channel a production deployment uses.
type carrierConfigRequest struct {
	Slot   int                   `json:"slot"`
	Bundle *carrierconfig.Bundle `json:"bundle"`
}

// handleSetCarrierConfig implements the test-only POST /carrierconfig
// (spec §3.6 "test-only"): pushes a Bundle directly into a slot's Error
// Policy Engine and ePDG Selector, then marks the Data surface's
// carrier-config-ready precondition so DNS prefetch can proceed.
func (s *Server) handleSetCarrierConfig(w http.ResponseWriter, r *http.Request) {
	var req carrierConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	sv, ok := s.slots[req.Slot]
	if !ok {
		http.Error(w, "unknown slot", http.StatusNotFound)
		return
	}
	if req.Bundle == nil {
		req.Bundle = carrierconfig.DefaultBundle()
	}

	if sv.Policy != nil {
		sv.Policy.UpdateConfig(req.Bundle)
	}
	if sv.Selector != nil {
		sv.Selector.UpdateConfig(req.Bundle)
	}
	if sv.Surface != nil {
		sv.Surface.SetCarrierConfigReady(true)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// simulateSetupRequest is the cmd/iwlanctl "simulate setupDataCall" form
// payload (spec §3.7): enough fields to exercise the Tunnel Manager's
// state machine from a bench rig without a real modem.
type simulateSetupRequest struct {
	Slot         int    `json:"slot"`
	APN          string `json:"apn"`
	ProtocolIPv4 bool   `json:"protocolIPv4"`
	ProtocolIPv6 bool   `json:"protocolIPv6"`
	IsRoaming    bool   `json:"isRoaming"`
}

// handleSimulateSetup implements the test-only POST /simulate/setup (spec
// §3.7 "huh-driven form to simulate setupDataCall"): drives the same
// Surface.SetupDataCall path a real platform caller would, synchronously
// returning the completion result.
func (s *Server) handleSimulateSetup(w http.ResponseWriter, r *http.Request) {
	var req simulateSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	sv, ok := s.slots[req.Slot]
	if !ok || sv.Surface == nil {
		http.Error(w, "unknown slot", http.StatusNotFound)
		return
	}

	done := make(chan struct{})
	var gotResult tunnelmgr.Result
	var gotResp *tunnelmgr.DataCallResponse
	sv.Surface.SetupDataCall(tunnelmgr.SetupDataCallRequest{
		AccessNetwork: tunnelmgr.AccessNetworkIWLAN,
		Profile: &tunnelmgr.DataCallProfile{
			APN:          req.APN,
			ProtocolIPv4: req.ProtocolIPv4,
			ProtocolIPv6: req.ProtocolIPv6,
		},
		IsRoaming: req.IsRoaming,
	}, func(result tunnelmgr.Result, resp *tunnelmgr.DataCallResponse) {
		gotResult, gotResp = result, resp
		close(done)
	})
	<-done
	writeJSON(w, http.StatusOK, map[string]any{"result": gotResult.String(), "response": gotResp})
}

// simulateDeactivateRequest is the "simulate deactivateDataCall" form
// payload.
type simulateDeactivateRequest struct {
	Slot int    `json:"slot"`
	CID  uint32 `json:"cid"`
}

// handleSimulateDeactivate implements the test-only
// POST /simulate/deactivate.
func (s *Server) handleSimulateDeactivate(w http.ResponseWriter, r *http.Request) {
	var req simulateDeactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	sv, ok := s.slots[req.Slot]
	if !ok || sv.Surface == nil {
		http.Error(w, "unknown slot", http.StatusNotFound)
		return
	}

	done := make(chan struct{})
	var gotResult tunnelmgr.Result
	sv.Surface.DeactivateDataCall(req.CID, tunnelmgr.DeactivateNormal, func(result tunnelmgr.Result) {
		gotResult = result
		close(done)
	})
	<-done
	writeJSON(w, http.StatusOK, map[string]any{"result": gotResult.String()})
}

// publishEventRequest is the test-only POST /events/publish payload: a
// stand-in for the platform broadcast-receiver plumbing (spec §6 "Out of
// scope: the broadcast receiver plumbing") that would otherwise feed a
// slot's Event Bus with carrier-config/airplane-mode/Wi-Fi transitions.
type publishEventRequest struct {
	Slot   int                   `json:"slot"`
	Kind   string                `json:"kind"`
	SSID   string                `json:"ssid,omitempty"`
	Bundle *carrierconfig.Bundle `json:"bundle,omitempty"`
}

// handlePublishEvent implements the test-only POST /events/publish: injects
// an event directly onto a slot's Bus, for bench-testing the Error Policy
// Engine's unthrottle reactions without a real platform broadcast.
func (s *Server) handlePublishEvent(w http.ResponseWriter, r *http.Request) {
	var req publishEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	sv, ok := s.slots[req.Slot]
	if !ok || sv.Bus == nil {
		http.Error(w, "unknown slot", http.StatusNotFound)
		return
	}

	if req.Kind == "WIFI_AP_CHANGED" && req.SSID != "" {
		sv.Bus.OnWifiConnected(req.SSID)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	kind := eventbus.ParseKind(req.Kind)
	if kind == eventbus.KindUnknown {
		http.Error(w, "unknown event kind", http.StatusBadRequest)
		return
	}
	payload := any(req.Bundle)
	if req.Bundle == nil {
		payload = nil
	}
	sv.Bus.Publish(eventbus.Event{Kind: kind, Payload: payload})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleEvents implements GET /events: a WebSocket stream of
// dataCallListChanged notifications (spec §4.5), for operators watching
// live tunnel transitions without polling GET /tunnels.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("adminapi: websocket upgrade failed", "error", err)
		return
	}

	s.wsMu.Lock()
	s.wsClients[conn] = true
	s.wsMu.Unlock()

	defer func() {
		s.wsMu.Lock()
		delete(s.wsClients, conn)
		s.wsMu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// broadcast sends a typed event to every connected /events client.
func (s *Server) broadcast(kind string, payload any) {
	data, err := json.Marshal(map[string]any{"type": kind, "payload": payload})
	if err != nil {
		s.logger.Warn("adminapi: failed to marshal broadcast event", "kind", kind, "error", err)
		return
	}

	s.wsMu.RLock()
	defer s.wsMu.RUnlock()
	for client := range s.wsClients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Warn("adminapi: failed to send websocket event", "error", err)
		}
	}
}
