package payment

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedCredential marks an X-PAYMENT header that could not be decoded.
var ErrMalformedCredential = errors.New("malformed payment credential")

// GateConfig is the pricing configuration a Gate derives requirements from.
type GateConfig struct {
	Network        string
	PayTo          string
	Asset          string
	PriceAtomic    string
	TimeoutSeconds int
	Description    string
}

// Gate builds payment requirements and decodes inbound credentials. Network
// interaction with the facilitator lives in the Facilitator it wraps.
type Gate struct {
	Facilitator Facilitator
	cfg         GateConfig
}

func NewGate(cfg GateConfig, facilitator Facilitator) *Gate {
	if cfg.Description == "" {
		cfg.Description = "Generate royalty-free instrumental music. Returns 2 unique tracks per request."
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 300
	}
	return &Gate{Facilitator: facilitator, cfg: cfg}
}

// BuildRequirement derives the payment requirement for a resource URL. Pure
// function of configuration; safe to call on every request.
func (g *Gate) BuildRequirement(resource string) Requirement {
	return Requirement{
		Scheme:            "exact",
		Network:           g.cfg.Network,
		MaxAmountRequired: g.cfg.PriceAtomic,
		Resource:          resource,
		Description:       g.cfg.Description,
		MimeType:          "application/json",
		PayTo:             g.cfg.PayTo,
		MaxTimeoutSeconds: g.cfg.TimeoutSeconds,
		Asset:             g.cfg.Asset,
		Extra:             map[string]string{"name": "USD Coin", "version": "2"},
	}
}

// DecodeCredential parses a base64-encoded X-PAYMENT header into a Credential.
// The payload JSON is retained verbatim for the facilitator.
func (g *Gate) DecodeCredential(header string) (*Credential, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	var envelope struct {
		Scheme  string `json:"scheme"`
		Network string `json:"network"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	return &Credential{
		Payload: json.RawMessage(raw),
		Scheme:  envelope.Scheme,
		Network: envelope.Network,
	}, nil
}
