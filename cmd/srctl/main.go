// Command srctl is the operator CLI for migrations, pricing and tokens.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
