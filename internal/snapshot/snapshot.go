// Package snapshot captures stills on a schedule driven by the `snapshot`
// config section.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pedrosland/rascam/internal/app"
	"github.com/pedrosland/rascam/pkg/camera"
	"github.com/pedrosland/rascam/pkg/mmal/vc"
	"github.com/pedrosland/rascam/pkg/yaml"
)

var log zerolog.Logger

type config struct {
	Output   string        `yaml:"output"`
	Encoding string        `yaml:"encoding"`
	Width    uint32        `yaml:"width"`
	Height   uint32        `yaml:"height"`
	ISO      uint32        `yaml:"iso"`
	Camera   int           `yaml:"camera"`
	Interval yaml.Duration `yaml:"interval"`
	Warmup   yaml.Duration `yaml:"warmup"`
}

func Init() {
	var cfg struct {
		Mod *config `yaml:"snapshot"`
	}

	app.LoadConfig(&cfg)

	if cfg.Mod == nil {
		return
	}

	log = app.GetLogger("snapshot")
	camera.Logger = app.GetLogger("camera")

	go run(*cfg.Mod)
}

func run(cfg config) {
	if cfg.Output == "" {
		cfg.Output = "snapshot.jpg"
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "jpeg"
	}
	warmup := time.Duration(cfg.Warmup)
	if warmup == 0 {
		// the sensor needs time to converge on exposure and gains
		warmup = 2 * time.Second
	}
	interval := time.Duration(cfg.Interval)

	encoding, err := camera.ParseEncoding(cfg.Encoding)
	if err != nil {
		log.Error().Err(err).Send()
		return
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
	log.Info().Stringer("camera", infos[cfg.Camera]).Msg("using")

	cam, err := camera.NewCameraFor(drv, infos[cfg.Camera])
	if err != nil {
		log.Error().Err(err).Send()
		return
	}
	defer cam.Close()

	s := camera.DefaultSettings()
	s.Encoding = encoding
	s.Width = cfg.Width
	s.Height = cfg.Height
	s.ISO = cfg.ISO
	cam.Configure(s)

	if err = cam.Activate(); err != nil {
		log.Error().Err(err).Msg("activate")
		return
	}

	time.Sleep(warmup)

	for {
		name := cfg.Output
		if interval > 0 {
			name = sequenceName(cfg.Output, time.Now())
		}
		if err = save(cam, name); err != nil {
			log.Error().Err(err).Str("file", name).Msg("snapshot")
		} else {
			log.Info().Str("file", name).Msg("snapshot")
		}

		if interval <= 0 {
			return
		}
		time.Sleep(interval)
	}
}

func save(cam *camera.Camera, name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}

	if _, err = cam.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// sequenceName inserts a timestamp before the extension, so interval mode
// never overwrites earlier shots.
func sequenceName(output string, ts time.Time) string {
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	return fmt.Sprintf("%s-%s%s", base, ts.Format("20060102-150405"), ext)
}
