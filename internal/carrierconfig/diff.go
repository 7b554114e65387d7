// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package carrierconfig

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff between two carrier-config snapshots'
// textual summaries, used to log what changed on CARRIER_CONFIG_CHANGED
// without ever including PSK/certificate material (neither side carries
// any). Mirrors the teacher's practice of diffing successive config
// generations for an operator-readable changelog.
func Diff(previous, next *Bundle) string {
	prevText := summarize(previous)
	nextText := summarize(next)

	if prevText == nextText {
		return ""
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(prevText),
		B:        difflib.SplitLines(nextText),
		FromFile: "previous",
		ToFile:   "next",
		Context:  2,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("<diff error: %v>", err)
	}
	return out
}

func summarize(b *Bundle) string {
	if b == nil {
		return "<nil>\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "priority=%v\n", b.EpdgAddressPriority)
	fmt.Fprintf(&sb, "static_address=%s\n", b.StaticAddress)
	fmt.Fprintf(&sb, "additional_plmns=%v\n", b.AdditionalPLMNs)
	fmt.Fprintf(&sb, "dh_groups=%v\n", b.DHGroups)
	fmt.Fprintf(&sb, "encryption=%v\n", b.EncryptionAlgorithms)
	fmt.Fprintf(&sb, "integrity=%v\n", b.IntegrityAlgorithms)
	fmt.Fprintf(&sb, "prfs=%v\n", b.PRFs)
	fmt.Fprintf(&sb, "sa_lifetime_s=%d\n", b.SASLifetimeSeconds)
	fmt.Fprintf(&sb, "natt_keepalive=%s\n", b.NATTKeepAlive)
	fmt.Fprintf(&sb, "local_id_type=%s\n", b.LocalIdentityType)
	fmt.Fprintf(&sb, "remote_id_type=%s\n", b.RemoteIdentityType)
	fmt.Fprintf(&sb, "retransmit_ms=%v\n", b.RetransmitTimerMs)
	fmt.Fprintf(&sb, "error_policy_json=%s\n", b.ErrorPolicyJSON)
	return sb.String()
}
