// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import "fmt"

// plmnFQDN constructs the ePDG FQDN for an MCC/MNC pair per 3GPP TS 23.003
// §19.4.2.4: "epdg.epc.mnc<MNC>.mcc<MCC>.pub.3gppnetwork.org", with a
// 2-digit MNC zero-padded to 3 digits (the 3-digit form is used as-is).
func plmnFQDN(mcc, mnc string) string {
	if len(mnc) == 2 {
		mnc = "0" + mnc
	}
	return fmt.Sprintf("epdg.epc.mnc%s.mcc%s.pub.3gppnetwork.org", mnc, mcc)
}
