package main

import (
	"flag"
	"fmt"
	"log"

	"eqic-a2a.backend/pkg/crypto"
)

// Generates an admin API key and the bcrypt hash to put in ADMIN_KEY_HASH.
// The plaintext key is printed once and never stored.
func main() {
	byteLen := flag.Int("bytes", 24, "random key length in bytes")
	flag.Parse()

	if *byteLen <= 0 {
		log.Fatalf("invalid bytes: %d (must be positive)", *byteLen)
	}

	key, err := crypto.GenerateRandomKey(*byteLen)
	if err != nil {
		log.Fatalf("failed to generate admin key: %v", err)
	}

	hash, err := crypto.HashKey(key)
	if err != nil {
		log.Fatalf("failed to hash admin key: %v", err)
	}

	fmt.Println("Generated admin credentials")
	fmt.Printf("ADMIN_KEY=%s\n", key)
	fmt.Printf("ADMIN_KEY_HASH=%s\n", hash)
}
