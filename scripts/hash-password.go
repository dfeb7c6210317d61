//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/ledgerly/ledgerly-server-go/internal/service"
	"github.com/ledgerly/ledgerly-server-go/internal/util"
)

// Prints a bcrypt hash for seeding a password account by hand.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-password.go <password>\n")
		os.Exit(1)
	}

	password := os.Args[1]
	if len(password) < service.MinPasswordLength {
		fmt.Fprintf(os.Stderr, "Error: password must be at least %d characters\n", service.MinPasswordLength)
		os.Exit(1)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
