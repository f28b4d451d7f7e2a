// Package record writes a raw H.264 elementary stream driven by the
// `record` config section.
package record

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/pedrosland/rascam/internal/app"
	"github.com/pedrosland/rascam/pkg/camera"
	"github.com/pedrosland/rascam/pkg/mmal"
	"github.com/pedrosland/rascam/pkg/mmal/vc"
	"github.com/pedrosland/rascam/pkg/yaml"
)

var log zerolog.Logger

type config struct {
	Output    string        `yaml:"output"`
	Width     uint32        `yaml:"width"`
	Height    uint32        `yaml:"height"`
	Framerate int32         `yaml:"framerate"`
	Bitrate   uint32        `yaml:"bitrate"`
	Duration  yaml.Duration `yaml:"duration"`
	Camera    int           `yaml:"camera"`
}

func Init() {
	var cfg struct {
		Mod *config `yaml:"record"`
	}

	app.LoadConfig(&cfg)

	if cfg.Mod == nil {
		return
	}

	log = app.GetLogger("record")
	camera.Logger = app.GetLogger("camera")

	go run(*cfg.Mod)
}

func run(cfg config) {
	if cfg.Output == "" {
		cfg.Output = "record.h264"
	}
	if cfg.Width == 0 {
		cfg.Width = 1920
	}
	if cfg.Height == 0 {
		cfg.Height = 1080
	}
	if cfg.Framerate == 0 {
		cfg.Framerate = 30
	}

	drv, err := vc.Driver()
	if err != nil {
		log.Error().Err(err).Msg("driver unavailable")
		return
	}

	infos, err := camera.Cameras(drv)
	if err != nil {
		log.Error().Err(err).Send()
		return
	}
	if cfg.Camera >= len(infos) {
		log.Error().Int("camera", cfg.Camera).Int("attached", len(infos)).Msg("no such camera")
		return
	}

	cam, err := camera.NewCameraFor(drv, infos[cfg.Camera])
	if err != nil {
		log.Error().Err(err).Send()
		return
	}
	defer cam.Close()

	cam.Configure(camera.Settings{
		Encoding:   mmal.EncodingH264,
		Width:      cfg.Width,
		Height:     cfg.Height,
		UseEncoder: true,
		Framerate:  cfg.Framerate,
		Bitrate:    cfg.Bitrate,
	})

	if err = cam.Activate(); err != nil {
		log.Error().Err(err).Msg("activate")
		return
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		log.Error().Err(err).Send()
		return
	}
	defer f.Close()

	r, err := cam.Frames()
	if err != nil {
		log.Error().Err(err).Send()
		return
	}

	ctx := context.Background()
	if d := time.Duration(cfg.Duration); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	log.Info().Str("file", cfg.Output).Msg("recording")

	var frames int
	for {
		frame, err := r.Next(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			// ask the hardware to stop, then drain what is buffered
			r.Stop()
			ctx = context.Background()
			continue
		}
		if errors.Is(err, io.EOF) {
			log.Info().Int("frames", frames).Msg("recording finished")
			return
		}
		if err != nil {
			log.Error().Err(err).Send()
			return
		}

		if _, err = f.Write(frame); err != nil {
			log.Error().Err(err).Send()
			r.Stop()
			return
		}
		frames++
	}
}
