package payment

import "encoding/json"

// x402Version is the protocol version echoed on every payment-required
// response and facilitator call.
const X402Version = 1

// Requirement declares what payment the gate demands for a resource. It is
// rebuilt per request from configuration so it can be echoed back inside 402
// responses.
type Requirement struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Asset             string            `json:"asset"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// Credential is a decoded X-PAYMENT header. The payload is kept as raw JSON
// and forwarded to the facilitator untouched; only envelope fields are parsed.
type Credential struct {
	Payload json.RawMessage
	Scheme  string
	Network string
}

// VerifyResult is the facilitator's answer to a verification request. A false
// IsValid is a payment rejection, not a transport failure.
type VerifyResult struct {
	IsValid       bool   `json:"isValid"`
	Payer         string `json:"payer,omitempty"`
	InvalidReason string `json:"invalidReason,omitempty"`
}

// SettleResult is the facilitator's answer to a settlement request.
type SettleResult struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
	Payer       string `json:"payer,omitempty"`
	ErrorReason string `json:"errorReason,omitempty"`
}

type facilitatorRequest struct {
	X402Version int             `json:"x402Version"`
	Payload     json.RawMessage `json:"paymentPayload"`
	Requirement Requirement     `json:"paymentRequirements"`
}
