// Package ledger describes the ledger collaborator used by the oracle: the outputs it
// pays with, the compositions it is asked to build and the units it records. The
// Wallet type implements the collaborator on BSV using go-sdk.
package ledger

import (
	"context"
	"errors"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

var (
	// ErrInsufficientFunds is returned when the paying addresses cannot cover the outputs and fee.
	ErrInsufficientFunds = errors.New("insufficient-funds")
	// ErrUnknownSigner is returned when the composition names a signer the wallet holds no key for.
	ErrUnknownSigner = errors.New("unknown-signer")
	// ErrBroadcastFailed is returned when the network refused the transaction.
	ErrBroadcastFailed = errors.New("broadcast-failed")
	// ErrInvalidComposition is returned for compositions without paying addresses or messages.
	ErrInvalidComposition = errors.New("invalid-composition")
	// ErrDiscardFailed is returned when a rejected unit could not be removed from the store.
	// Its inputs stay marked as spent until the operator registers them again.
	ErrDiscardFailed = errors.New("discard-failed")
	// ErrNotFound is returned by stores when a requested record does not exist.
	ErrNotFound = errors.New("not-found")
)

// Output is a planned output of the next transaction. A zero Amount paid to the
// oracle's own address is the change slot of the transaction.
type Output struct {
	Amount  uint64 `json:"amount"`
	Address string `json:"address"`
}

// SpendableOutput is a value-carrying output owned by the oracle address.
// Only asset-less, stable and unspent outputs count toward payable capacity.
type SpendableOutput struct {
	Txid          string
	Vout          uint32
	Address       string
	Amount        uint64
	Asset         *string
	IsStable      bool
	IsSpent       bool
	LockingScript []byte
}

// Payable reports whether the output can pay for a publication.
func (o *SpendableOutput) Payable() bool {
	return o.Asset == nil && o.IsStable && !o.IsSpent
}

// Composition is everything needed to build one publication transaction.
type Composition struct {
	PayingAddresses []string
	Outputs         []Output
	Messages        []fact.Message
	Signer          string
	FactKey         fact.Key
}

// Outpoint references an output spent by a unit.
type Outpoint struct {
	Txid string
	Vout uint32
}

// DataFeed is one key/value pair of a published payload, indexed by the fact it belongs to.
type DataFeed struct {
	FactKey fact.Key
	Name    string
	Value   string
}

// Unit is a composed, signed transaction together with the bookkeeping recorded
// before it is handed to the network.
type Unit struct {
	ID        string
	Author    string
	Tx        *transaction.Transaction
	Spent     []Outpoint
	Outputs   []SpendableOutput
	DataFeeds []DataFeed
	Fee       uint64
}

// Store is the persistence the wallet needs to select inputs and record units.
type Store interface {
	SpendableOutputs(ctx context.Context, address string) ([]*SpendableOutput, error)
	SaveUnit(ctx context.Context, unit *Unit) error
	DiscardUnit(ctx context.Context, unit *Unit) error
}
