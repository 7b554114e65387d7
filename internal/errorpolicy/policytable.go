// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errorpolicy

import (
	"strconv"

	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/eventbus"
	"iwlan.dev/epdgctl/internal/ierrors"
	"iwlan.dev/epdgctl/internal/ikeerror"
	"iwlan.dev/epdgctl/internal/logging"
)

// policyEntry is one resolved, validated policy-table entry. A single
// config line can list several ErrorDetails sharing one retry array (spec
// §8 scenario 1: codes 24 and 34 both retry [4,8,16]); entry matches any of
// them. wildcard is set when ErrorDetails contained "*".
type policyEntry struct {
	generic   bool
	wildcard  bool
	codes     map[int]bool
	names     map[ikeerror.GenericName]bool

	retryArray       []int
	unthrottleEvents map[eventbus.Kind]bool
}

// matches reports whether this entry's key set covers the raised error's
// canonical key, per spec §3: "the first entry whose key matches wins",
// excluding wildcard entries (the caller tries exact entries first, then
// falls back to the wildcard entry explicitly — see Engine.lookup).
func (e policyEntry) matches(key ikeerror.TypeKey) bool {
	if e.generic != key.Generic {
		return false
	}
	if e.wildcard {
		return false
	}
	if e.generic {
		return e.names[key.Name]
	}
	return e.codes[key.Code]
}

// isWildcardFor reports whether this entry is the wildcard entry for the
// given error kind (IKE vs. generic).
func (e policyEntry) isWildcardFor(generic bool) bool {
	return e.wildcard && e.generic == generic
}

// policyTable is the ordered mapping APN -> []policyEntry (spec §3 "Policy
// Table"). Lookup for a raised error searches the APN's entries in
// declaration order; the first entry whose key matches wins.
type policyTable map[string][]policyEntry

// globalDefaultRetry is the hard-coded global default (spec §3 "Policy
// Table" fallback rule 3). Like every retry array it is not repeated past
// its last element: the report after the tail value gives up (WaitGiveUp).
var globalDefaultRetry = []int{5, 10, 15}

// builtinDefault is the built-in per-ErrorType default consulted before
// falling through to globalDefaultRetry (spec §3 fallback rule 2). The
// distilled spec documents no carrier-independent values different from
// the global default, so the built-in default and the global default
// coincide here; a carrier wanting different behavior configures it
// explicitly via the JSON policy document.
func builtinDefault(key ikeerror.TypeKey) []int {
	_ = key
	return globalDefaultRetry
}

// parseDocument validates and converts a carrierconfig.PolicyDocument into
// a policyTable. Per spec §4.3, a single malformed entry is discarded
// without invalidating its siblings or the APN's other entries; a document
// that fails to json.Unmarshal at all is the caller's concern (it should
// fall back to the previous table, per spec §4.3 "silently falling back on
// parse failure").
func parseDocument(doc carrierconfig.PolicyDocument, logger *logging.Logger) policyTable {
	table := make(policyTable)

	for _, apnPolicy := range doc {
		if apnPolicy.ApnName == "" {
			logWarn(logger, "errorpolicy: dropping policy block with empty ApnName")
			continue
		}

		var entries []policyEntry
		for _, raw := range apnPolicy.ErrorTypes {
			entry, err := parseEntry(raw)
			if err != nil {
				logWarn(logger, "errorpolicy: dropping malformed policy entry",
					"apn", apnPolicy.ApnName, "error", err)
				continue
			}
			entries = append(entries, entry)
		}
		if len(entries) > 0 {
			table[apnPolicy.ApnName] = entries
		}
	}

	return table
}

func logWarn(logger *logging.Logger, msg string, kv ...any) {
	if logger != nil {
		logger.Warn(msg, kv...)
	}
}

// parseEntry validates one carrierconfig.ErrorTypeEntry. A parse failure
// anywhere in the entry (a bad retry value, an unrecognized ErrorType, an
// empty ErrorDetails/RetryArray) discards exactly this entry.
func parseEntry(raw carrierconfig.ErrorTypeEntry) (policyEntry, error) {
	if len(raw.ErrorDetails) == 0 {
		return policyEntry{}, ierrors.New(ierrors.KindInvalidArg, "ErrorDetails must be non-empty")
	}
	if len(raw.RetryArray) == 0 {
		return policyEntry{}, ierrors.New(ierrors.KindInvalidArg, "RetryArray must be non-empty")
	}

	var generic bool
	switch raw.ErrorType {
	case carrierconfig.ErrorTypeIKEProtocol:
		generic = false
	case carrierconfig.ErrorTypeGeneric:
		generic = true
	default:
		return policyEntry{}, ierrors.Errorf(ierrors.KindInvalidArg, "unrecognized ErrorType %q", raw.ErrorType)
	}

	retryArray := make([]int, 0, len(raw.RetryArray))
	for _, s := range raw.RetryArray {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return policyEntry{}, ierrors.Wrapf(err, ierrors.KindInvalidArg, "invalid RetryArray value %q", s)
		}
		retryArray = append(retryArray, n)
	}

	entry := policyEntry{
		generic:    generic,
		retryArray: retryArray,
	}

	wildcard := false
	codes := make(map[int]bool)
	names := make(map[ikeerror.GenericName]bool)
	for _, detail := range raw.ErrorDetails {
		if detail == "*" {
			wildcard = true
			continue
		}
		if generic {
			names[ikeerror.GenericName(detail)] = true
			continue
		}
		n, err := strconv.Atoi(detail)
		if err != nil || n < 1 || n > 65535 {
			return policyEntry{}, ierrors.Errorf(ierrors.KindInvalidArg, "invalid IKE notify code %q", detail)
		}
		codes[n] = true
	}
	entry.wildcard = wildcard
	entry.codes = codes
	entry.names = names

	unthrottle := make(map[eventbus.Kind]bool, len(raw.UnthrottlingEvents))
	for _, name := range raw.UnthrottlingEvents {
		kind := eventbus.ParseKind(name)
		if kind == eventbus.KindUnknown {
			// Spec §9: unknown event names resolve to UNKNOWN_EVENT and
			// are silently dropped rather than failing the whole entry.
			continue
		}
		unthrottle[kind] = true
	}
	entry.unthrottleEvents = unthrottle

	return entry, nil
}

// lookup implements the match/fallback ladder of spec §3 "Policy Table":
// (1) same-APN exact entry in declaration order, (2) same-APN wildcard
// entry of the matching kind, (3) built-in default for the ErrorType,
// (4) the hard-coded global default.
func (t policyTable) lookup(apn string, key ikeerror.TypeKey) (retryArray []int, unthrottle map[eventbus.Kind]bool) {
	entries := t[apn]

	for _, e := range entries {
		if e.matches(key) {
			return e.retryArray, e.unthrottleEvents
		}
	}
	for _, e := range entries {
		if e.isWildcardFor(key.Generic) {
			return e.retryArray, e.unthrottleEvents
		}
	}
	return builtinDefault(key), nil
}
