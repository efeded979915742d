package ledger

import (
	"cmp"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"
	"github.com/gookit/slog"
)

// DefaultFeePerKB is the fee rate used when none is configured, in satoshis per 1000 bytes.
const DefaultFeePerKB = 50

// Size estimates of a P2PKH transaction, in bytes.
const (
	txOverheadSize   = 10
	p2pkhInputSize   = 148
	p2pkhOutputSize  = 34
	dataOutputSize   = 9
	opReturnOverhead = 4
)

// TxBroadcaster propagates a signed transaction to the network. Every go-sdk
// transaction.Broadcaster (e.g. broadcaster.Arc) satisfies it.
type TxBroadcaster interface {
	Broadcast(tx *transaction.Transaction) (*transaction.BroadcastSuccess, *transaction.BroadcastFailure)
}

// WalletOption configures optional Wallet settings.
type WalletOption func(*Wallet)

// WithFeePerKB sets the fee rate in satoshis per 1000 bytes.
func WithFeePerKB(sats uint64) WalletOption {
	return func(w *Wallet) {
		if sats > 0 {
			w.feePerKB = sats
		}
	}
}

// Wallet composes, signs and broadcasts publication transactions paid by a single
// P2PKH address.
type Wallet struct {
	key         *ec.PrivateKey
	address     *script.Address
	store       Store
	broadcaster TxBroadcaster
	feePerKB    uint64
}

// NewWallet creates a wallet controlling the address derived from key.
func NewWallet(key *ec.PrivateKey, mainnet bool, store Store, broadcaster TxBroadcaster, opts ...WalletOption) (*Wallet, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: private key is required", ErrUnknownSigner)
	}
	if store == nil {
		panic("wallet store is nil")
	}
	if broadcaster == nil {
		panic("wallet broadcaster is nil")
	}

	address, err := script.NewAddressFromPublicKey(key.PubKey(), mainnet)
	if err != nil {
		return nil, fmt.Errorf("failed to derive wallet address: %w", err)
	}

	w := &Wallet{
		key:         key,
		address:     address,
		store:       store,
		broadcaster: broadcaster,
		feePerKB:    DefaultFeePerKB,
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// KeyFromWIF decodes a WIF encoded private key.
func KeyFromWIF(wif string) (*ec.PrivateKey, error) {
	key, err := ec.PrivateKeyFromWif(wif)
	if err != nil {
		return nil, fmt.Errorf("invalid private key WIF: %w", err)
	}
	return key, nil
}

// Address returns the single address controlled by the wallet.
func (w *Wallet) Address() string {
	return w.address.AddressString
}

// Compose selects inputs from the stable unspent outputs of the wallet address,
// builds the planned outputs plus one data output per message and signs the result.
func (w *Wallet) Compose(ctx context.Context, c Composition) (*Unit, error) {
	if len(c.PayingAddresses) == 0 || len(c.Messages) == 0 {
		return nil, fmt.Errorf("%w: paying addresses and messages are required", ErrInvalidComposition)
	}
	if c.Signer != w.Address() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSigner, c.Signer)
	}
	for _, payer := range c.PayingAddresses {
		if payer != w.Address() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSigner, payer)
		}
	}

	dataScripts := make([]*script.Script, 0, len(c.Messages))
	var dataSize int
	for _, msg := range c.Messages {
		s, err := dataScript(msg)
		if err != nil {
			return nil, err
		}
		dataScripts = append(dataScripts, s)
		dataSize += dataOutputSize + len(*s)
	}

	var target uint64
	paidOutputs := 0
	for _, o := range c.Outputs {
		if o.Amount > 0 {
			target += o.Amount
			paidOutputs++
		}
	}

	candidates, err := w.store.SpendableOutputs(ctx, w.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to read spendable outputs: %w", err)
	}
	candidates = slices.DeleteFunc(candidates, func(o *SpendableOutput) bool { return !o.Payable() })
	slices.SortFunc(candidates, func(a, b *SpendableOutput) int { return cmp.Compare(b.Amount, a.Amount) })

	var selected []*SpendableOutput
	var total, fee uint64
	for _, candidate := range candidates {
		selected = append(selected, candidate)
		total += candidate.Amount
		fee = w.fee(len(selected), paidOutputs+1, dataSize)
		if total >= target+fee {
			break
		}
	}
	if len(selected) == 0 || total < target+fee {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, target+fee)
	}

	tx, err := w.buildTx(selected, c.Outputs, dataScripts, total-target-fee)
	if err != nil {
		return nil, err
	}

	unit := &Unit{
		ID:     tx.TxID().String(),
		Author: w.Address(),
		Tx:     tx,
		Fee:    fee,
	}
	for _, in := range selected {
		unit.Spent = append(unit.Spent, Outpoint{Txid: in.Txid, Vout: in.Vout})
	}
	for _, msg := range c.Messages {
		for name, value := range msg.Payload {
			unit.DataFeeds = append(unit.DataFeeds, DataFeed{FactKey: c.FactKey, Name: name, Value: fmt.Sprint(value)})
		}
	}
	lock, err := p2pkh.Lock(w.address)
	if err != nil {
		return nil, fmt.Errorf("failed to build own locking script: %w", err)
	}
	for vout, out := range tx.Outputs {
		if out.LockingScript == nil || !slices.Equal([]byte(*out.LockingScript), []byte(*lock)) {
			continue
		}
		unit.Outputs = append(unit.Outputs, SpendableOutput{
			Txid:          unit.ID,
			Vout:          uint32(vout), //nolint:gosec // bounded by output count
			Address:       w.Address(),
			Amount:        out.Satoshis,
			LockingScript: []byte(*lock),
		})
	}

	slog.Debugf("[Wallet] composed unit %s: %d inputs, %d outputs, fee %d", unit.ID, len(selected), len(tx.Outputs), fee)
	return unit, nil
}

// Broadcast records the unit and then hands it to the network. A unit the network
// rejects is discarded again, so its inputs are spendable by the next attempt. Once
// the network accepted the unit, Broadcast does not fail.
func (w *Wallet) Broadcast(ctx context.Context, unit *Unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := w.store.SaveUnit(ctx, unit); err != nil {
		return fmt.Errorf("failed to record unit %s: %w", unit.ID, err)
	}

	success, failure := w.broadcaster.Broadcast(unit.Tx)
	if failure != nil {
		err := fmt.Errorf("%w: %s %s", ErrBroadcastFailed, failure.Code, failure.Description)
		if derr := w.store.DiscardUnit(context.WithoutCancel(ctx), unit); derr != nil {
			return errors.Join(err, fmt.Errorf("%w: unit %s: %w", ErrDiscardFailed, unit.ID, derr))
		}
		return err
	}
	if success != nil && success.Txid != "" && success.Txid != unit.ID {
		slog.Warnf("[Wallet] broadcaster reported txid %s for unit %s", success.Txid, unit.ID)
	}
	return nil
}

func (w *Wallet) buildTx(inputs []*SpendableOutput, outputs []Output, data []*script.Script, change uint64) (*transaction.Transaction, error) {
	tx := transaction.NewTransaction()

	unlocker, err := p2pkh.Unlock(w.key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build unlocking template: %w", err)
	}
	ownLock, err := p2pkh.Lock(w.address)
	if err != nil {
		return nil, fmt.Errorf("failed to build own locking script: %w", err)
	}

	for _, in := range inputs {
		lockHex := hex.EncodeToString(in.LockingScript)
		if len(in.LockingScript) == 0 {
			lockHex = hex.EncodeToString(*ownLock)
		}
		if err := tx.AddInputFrom(in.Txid, in.Vout, lockHex, in.Amount, unlocker); err != nil {
			return nil, fmt.Errorf("failed to add input %s:%d: %w", in.Txid, in.Vout, err)
		}
	}

	changePlaced := false
	for _, o := range outputs {
		if o.Amount == 0 {
			if o.Address != w.Address() || changePlaced || change == 0 {
				continue
			}
			tx.AddOutput(&transaction.TransactionOutput{Satoshis: change, LockingScript: ownLock})
			changePlaced = true
			continue
		}

		lock := ownLock
		if o.Address != w.Address() {
			addr, err := script.NewAddressFromString(o.Address)
			if err != nil {
				return nil, fmt.Errorf("invalid output address %s: %w", o.Address, err)
			}
			if lock, err = p2pkh.Lock(addr); err != nil {
				return nil, fmt.Errorf("failed to lock output to %s: %w", o.Address, err)
			}
		}
		tx.AddOutput(&transaction.TransactionOutput{Satoshis: o.Amount, LockingScript: lock})
	}
	if !changePlaced && change > 0 {
		tx.AddOutput(&transaction.TransactionOutput{Satoshis: change, LockingScript: ownLock})
	}

	for _, s := range data {
		tx.AddOutput(&transaction.TransactionOutput{Satoshis: 0, LockingScript: s})
	}

	if err := tx.Sign(); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

func (w *Wallet) fee(inputs, outputs, dataSize int) uint64 {
	size := uint64(txOverheadSize + inputs*p2pkhInputSize + outputs*p2pkhOutputSize + dataSize) //nolint:gosec // sizes are small and positive
	fee := (size*w.feePerKB + 999) / 1000
	return max(fee, 1)
}

func dataScript(msg fact.Message) (*script.Script, error) {
	bb, err := msg.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %w", err)
	}

	s := make(script.Script, 0, len(bb)+opReturnOverhead)
	if err := s.AppendOpcodes(script.OpFALSE, script.OpRETURN); err != nil {
		return nil, err
	}
	if err := s.AppendPushData(bb); err != nil {
		return nil, err
	}
	return &s, nil
}
