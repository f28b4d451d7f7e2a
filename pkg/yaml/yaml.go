// Package yaml pins the YAML implementation used for config parsing.
package yaml

import (
	"time"

	"gopkg.in/yaml.v3"
)

func Unmarshal(in []byte, out interface{}) (err error) {
	return yaml.Unmarshal(in, out)
}

// Duration decodes `250ms` / `5s` style strings. Bare numbers are seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		if v, err := time.ParseDuration(s); err == nil {
			*d = Duration(v)
			return nil
		}
	}

	var secs float64
	if err := node.Decode(&secs); err != nil {
		return err
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}
