package main

import (
	"fmt"
	"os"

	"github.com/pairwell/provider-gateway/internal/secrets"
)

func main() {
	key, err := secrets.GenerateMasterKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate master key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Master Key: %s\n", key)
	fmt.Println("\nExport it for the gateway:")
	fmt.Printf("  export PGW_MASTER_KEY=\"%s\"\n", key)
	fmt.Println("\nOr reference it from config.yaml:")
	fmt.Printf("  secrets:\n")
	fmt.Printf("    master_key: \"${PGW_MASTER_KEY}\"\n")
}
