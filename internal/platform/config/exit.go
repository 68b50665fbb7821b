package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// Exit reports err on stderr and terminates the process. A -h request exits 0
// because the flag package already printed usage.
func Exit(err error) {
	os.Exit(report(os.Stderr, err))
}

func report(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
}
