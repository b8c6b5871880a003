package main

import (
	"log"
	"os"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		log.Printf("erpctl: %v", err)
		os.Exit(1)
	}
}
