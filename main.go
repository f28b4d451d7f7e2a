package main

import (
	"github.com/pedrosland/rascam/internal/app"
	"github.com/pedrosland/rascam/internal/record"
	"github.com/pedrosland/rascam/internal/snapshot"
	"github.com/pedrosland/rascam/pkg/shell"
)

func main() {
	app.Init() // init config and logs

	snapshot.Init() // stills on demand or on an interval
	record.Init()   // raw H.264 stream to disk

	shell.RunUntilSignal()
}
