package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// ComputeIntegrityTag builds the commitment binding a reversal window to the
// transfer it undoes: keccak256(sender ‖ recipient ‖ grossAmount). The gross
// amount is encoded as a 32-byte big-endian word, so a reversal can only
// verify by reconstructing the exact gross amount (net + fee) of the
// original transfer.
func ComputeIntegrityTag(sender, recipient common.Address, gross *uint256.Int) common.Hash {
	amount := gross.Bytes32()
	return crypto.Keccak256Hash(sender.Bytes(), recipient.Bytes(), amount[:])
}
