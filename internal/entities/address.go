package entities

// NormalizeAddress canonicalizes a counterparty identifier to its digits-only
// form: "+1 555-0100" and "15550100" map to the same key. The webhook source is
// untrusted, so this is best-effort and never fails; empty or digit-free input
// yields "", which callers treat as "unknown, do not store or compare".
// Idempotent: NormalizeAddress(NormalizeAddress(x)) == NormalizeAddress(x).
func NormalizeAddress(raw string) string {
	if raw == "" {
		return ""
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			out = append(out, raw[i])
		}
	}
	return string(out)
}
