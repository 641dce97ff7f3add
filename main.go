package main

import (
	"github.com/manifest-network/mockchain/cmd/mockchain"
)

func main() {
	mockchain.Execute()
}
