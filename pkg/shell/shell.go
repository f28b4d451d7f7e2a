package shell

import (
	"os"
	"os/signal"
	"syscall"
)

// RunUntilSignal blocks the main goroutine until SIGINT or SIGTERM.
func RunUntilSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	println("exit with signal:", (<-sigs).String())
}
