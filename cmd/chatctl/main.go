package main

import (
	"fmt"
	"os"

	"github.com/tasukuchiba/channel_chat/internal/config"
)

func main() {
	if err := newRootCmd(openFromEnv, config.Load).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
