package main

import (
	"fmt"
	"os"

	"stakevault/crypto"
)

const usage = `stakevault-cli <command> [args]

Commands:
  gen-key <keystore-path> <passphrase>   Generate a key and write an encrypted keystore file
  address <keystore-path> <passphrase>   Print the bech32 address of a stored key
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "gen-key":
		if len(os.Args) != 4 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			fatal(err)
		}
		if err := crypto.SaveToKeystore(os.Args[2], key, os.Args[3]); err != nil {
			fatal(err)
		}
		fmt.Println(key.PubKey().Address().String())
	case "address":
		if len(os.Args) != 4 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		key, err := crypto.LoadFromKeystore(os.Args[2], os.Args[3])
		if err != nil {
			fatal(err)
		}
		fmt.Println(key.PubKey().Address().String())
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
