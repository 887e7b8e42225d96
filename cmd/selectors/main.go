package main

import (
	"fmt"
	"sort"

	"github.com/dantezy/reactor-sdk/pkg/validation"
)

// Prints the revert selector table used to classify simulations, for
// matching raw revert data by eye.
func main() {
	signatures := validation.KnownErrorSignatures()

	names := make([]string, 0, len(signatures))
	for name := range signatures {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Known revert selectors (%d):\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s  %-32s %s\n", validation.ErrorSelector(name), name, signatures[name])
	}

	fmt.Printf("\nError(string) selector: %s\n", validation.ErrorSelector("Error(string)"))
}
