// Package main is the entry point for group-session-service (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/brownjh18/SafeTalk-sub001/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
