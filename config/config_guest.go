package config

// Guest configures the guest-access API. Tokens are HMAC-SHA256 signed
// with Secret and expire after GUEST_TOKEN_TTL.
type Guest struct {
	Secret string `json:"secret"`
}
