package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	storage := flag.String("storage", "postgres", "storage backend: postgres | memory")
	flag.Parse()

	if *storage != "postgres" && *storage != "memory" {
		fmt.Fprintf(os.Stderr, "unknown storage %q\n", *storage)
		os.Exit(2)
	}
	startManual(*storage == "memory")
}
