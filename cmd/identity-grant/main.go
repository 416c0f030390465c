// Package main generates grant keys and mints identity grants.
package main

import (
	"os"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/config"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/tools/identitygrant"
)

func main() {
	err := identitygrant.Run(os.Args[1:], identitygrant.Options{Out: os.Stdout})
	config.ExitOnError("identity-grant", err)
}
