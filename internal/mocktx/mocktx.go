// Package mocktx builds transaction descriptors and tagged arguments for the mock chain.
package mocktx

import (
	"github.com/manifest-network/mockchain/internal/models"
	"github.com/manifest-network/mockchain/internal/utils"
)

// ContractCall returns a transaction descriptor with its fields copied verbatim.
func ContractCall(contract, method string, args []models.EncodedArg, sender string) models.Transaction {
	return models.Transaction{
		Contract: contract,
		Method:   method,
		Args:     args,
		Sender:   sender,
	}
}

// Buff wraps a hex string. The value is passed through unchanged; callers strip any 0x prefix.
func Buff(hexString string) models.EncodedArg {
	return models.EncodedArg{Type: models.ArgTypeBuff, Value: hexString}
}

// BuffFromHex strips a single leading 0x before wrapping.
func BuffFromHex(hexString string) models.EncodedArg {
	return Buff(utils.StripHexPrefix(hexString))
}

// Principal wraps an address.
func Principal(address string) models.EncodedArg {
	return models.EncodedArg{Type: models.ArgTypePrincipal, Value: address}
}
