package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/gookit/slog"
)

// ARCIngestProvider handles merkle proofs delivered by the ARC callback.
type ARCIngestProvider interface {
	HandleNewMerkleProof(ctx context.Context, txid *chainhash.Hash, proof *transaction.MerklePath) error
}

// ARCIngestService parses ARC callbacks and hands the proven unit to the provider.
type ARCIngestService struct {
	provider ARCIngestProvider
}

// ProcessIngest decodes txID and merklePath and forwards them to the provider.
// blockHeight must be positive and match the height carried by the merkle path.
func (s *ARCIngestService) ProcessIngest(ctx context.Context, txID, merklePath string, blockHeight uint32) error {
	txid, err := chainhash.NewHashFromHex(txID)
	if err != nil {
		return NewInvalidTxIDFormatError(err)
	}

	proof, err := transaction.NewMerklePathFromHex(merklePath)
	if err != nil {
		return NewInvalidMerklePathFormatError(err)
	}

	if blockHeight == 0 {
		return NewIncorrectInputWithFieldError("blockHeight")
	}
	if proof.BlockHeight != blockHeight {
		return NewBlockHeightMismatchError(blockHeight, proof.BlockHeight)
	}

	slog.Infof("[ArcIngest] merkle proof received for %s at height %d", txid, blockHeight)

	if err := s.provider.HandleNewMerkleProof(ctx, txid, proof); err != nil {
		return NewARCIngestProviderError(err)
	}
	return nil
}

// NewARCIngestService constructs an ARCIngestService. Panics if the provider is nil.
func NewARCIngestService(provider ARCIngestProvider) *ARCIngestService {
	if provider == nil {
		panic("arc ingest provider is nil")
	}
	return &ARCIngestService{provider: provider}
}

// NewInvalidTxIDFormatError is returned for transaction ids that are not 32-byte hex hashes.
func NewInvalidTxIDFormatError(err error) Error {
	return NewIncorrectInputError(err.Error(), "The submitted transaction ID is not a valid hex encoded hash.")
}

// NewInvalidMerklePathFormatError is returned for merkle paths that cannot be decoded.
func NewInvalidMerklePathFormatError(err error) Error {
	return NewIncorrectInputError(err.Error(), "The submitted merkle path is not a valid hex encoded merkle path.")
}

// NewBlockHeightMismatchError is returned when the block height of the callback differs
// from the one carried by the merkle path.
func NewBlockHeightMismatchError(expected, actual uint32) Error {
	msg := fmt.Sprintf("The submitted block height %d does not match the merkle path block height %d.", expected, actual)
	return NewIncorrectInputError(msg, msg)
}

// NewARCIngestProviderError translates a provider failure into an application error.
func NewARCIngestProviderError(err error) Error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewContextCancellationError()
	case errors.Is(err, oracle.ErrInvalidProof):
		return NewIncorrectInputError(err.Error(), "The submitted merkle path does not prove the submitted transaction.")
	default:
		return NewProviderFailureError(err.Error(), "Unable to process the merkle proof due to an internal error. Please try again later or contact the support team.")
	}
}
