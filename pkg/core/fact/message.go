package fact

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

const (
	// AppDataFeed names the message application carrying oracle facts.
	AppDataFeed = "data_feed"

	// PayloadLocationInline marks payloads embedded directly in the message.
	PayloadLocationInline = "inline"
)

// Message is the single message carried by a publication transaction.
type Message struct {
	App             string  `json:"app"`
	PayloadLocation string  `json:"payload_location"`
	PayloadHash     string  `json:"payload_hash"`
	Payload         Payload `json:"payload"`
}

// NewDataFeedMessage wraps the payload in an inline data_feed message bound to its content hash.
func NewDataFeedMessage(p Payload) (Message, error) {
	if err := p.Validate(); err != nil {
		return Message{}, err
	}
	hash, err := PayloadHash(p)
	if err != nil {
		return Message{}, err
	}
	return Message{
		App:             AppDataFeed,
		PayloadLocation: PayloadLocationInline,
		PayloadHash:     hash,
		Payload:         p,
	}, nil
}

// PayloadHash returns base64(sha256(json(p))). encoding/json sorts map keys, which makes
// the serialization canonical for a given payload.
func PayloadHash(p Payload) (string, error) {
	bb, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(chainhash.HashB(bb)), nil
}

// Verify reports whether the embedded hash still matches the payload.
func (m Message) Verify() (bool, error) {
	hash, err := PayloadHash(m.Payload)
	if err != nil {
		return false, err
	}
	return hash == m.PayloadHash, nil
}

// Bytes returns the JSON encoding written into the ledger data output.
func (m Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}
