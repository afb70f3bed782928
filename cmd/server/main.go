package main

import (
	"fmt"
	"os"
)

func main() {
	srv, err := NewServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	os.Exit(srv.Run())
}
