package models

// ArgType tags an encoded contract-call argument.
type ArgType string

const (
	ArgTypeBuff      ArgType = "buff"
	ArgTypePrincipal ArgType = "principal"
)

// Block represents a mined block.
type Block struct {
	Height   uint64    `json:"height" yaml:"height"`
	Receipts []Receipt `json:"receipts" yaml:"receipts"`
}

// Receipt represents the outcome of a single transaction, e.g. "(ok true)" or "(err u100)".
type Receipt struct {
	Result string `json:"result" yaml:"result"`
}

// Transaction describes a contract call before it is mined.
type Transaction struct {
	Contract string       `json:"contract" yaml:"contract"`
	Method   string       `json:"method" yaml:"method"`
	Args     []EncodedArg `json:"args" yaml:"args"`
	Sender   string       `json:"sender" yaml:"sender"`
}

// EncodedArg is a tagged contract-call argument. The value is never validated.
type EncodedArg struct {
	Type  ArgType `json:"type" yaml:"type"`
	Value string  `json:"value" yaml:"value"`
}

// Account is a named test identity.
type Account struct {
	Address string `json:"address" yaml:"address"`
}
