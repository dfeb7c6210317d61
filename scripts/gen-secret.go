//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

// Prints a random JWT_SECRET suitable for production.
func main() {
	secret, err := util.GenerateToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(secret)
}
