// Package main provides the loungepos CLI: inspect and initialize the
// local point of sale data store.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		code := exitUserError
		var coded *codedError
		if errors.As(err, &coded) {
			code = coded.code
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}
