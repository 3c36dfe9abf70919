// Command cadmcp drives AutoCAD, GstarCAD or ZWCAD from MCP clients, an HTTP
// API or the command line.
package main

import (
	"fmt"
	"log"
	"os"
)

func main() {
	// log writes to stderr; stdout belongs to the MCP transport.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
