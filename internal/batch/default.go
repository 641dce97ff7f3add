package batch

import (
	"github.com/manifest-network/mockchain/internal/chain"
	"github.com/manifest-network/mockchain/internal/mocktx"
	"github.com/manifest-network/mockchain/internal/models"
)

const (
	// sha256("test@example.com")
	sampleEmailHash        = "0x973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"
	sampleVerificationCode = "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"
)

// Default returns the built-in email-verification scenario: a verification
// request, then a block where a user and the deployer each try to confirm it.
func Default() *Batch {
	accounts := chain.DefaultAccounts()
	user := accounts["wallet_1"].Address
	deployer := accounts["deployer"].Address

	request := mocktx.ContractCall(
		chain.ContractEmailVerification,
		chain.MethodRequestVerification,
		[]models.EncodedArg{mocktx.BuffFromHex(sampleEmailHash)},
		user,
	)
	confirmArgs := []models.EncodedArg{
		mocktx.Principal(user),
		mocktx.BuffFromHex(sampleEmailHash),
		mocktx.BuffFromHex(sampleVerificationCode),
	}

	return &Batch{
		Blocks: []BlockSpec{
			{Transactions: []models.Transaction{request}},
			{Transactions: []models.Transaction{
				request,
				mocktx.ContractCall(chain.ContractEmailVerification, chain.MethodConfirmVerification, confirmArgs, user),
				mocktx.ContractCall(chain.ContractEmailVerification, chain.MethodConfirmVerification, confirmArgs, deployer),
			}},
		},
	}
}
