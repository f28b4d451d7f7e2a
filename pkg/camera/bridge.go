package camera

import (
	"github.com/pedrosland/rascam/pkg/mmal"
)

// onBuffer runs on the driver's callback thread for every buffer emitted
// by the data port. Without an armed session the buffer is recycled
// immediately; otherwise it is locked, wrapped and handed to the session,
// which may block until the consumer takes the previous frame. A
// zero-length delivery is the end-of-stream marker.
func (d *Device) onBuffer(p mmal.Port, buf mmal.Buffer) {
	d.mu.Lock()
	c := d.capture
	d.mu.Unlock()

	if c == nil {
		buf.Release()
		d.pool.requeue()
		return
	}

	f := newFrame(buf, d.pool)
	terminal := len(f.Bytes()) == 0 || (c.oneShot && f.FrameEnd())

	if len(f.Bytes()) == 0 {
		f.Release()
	} else if !c.deliver(f) {
		f.Release()
	}

	if terminal {
		c.finish(nil)
	}
}

// onControl runs on the driver's callback thread for control port events.
// Events are observational: decoded, logged and always recycled.
func (d *Device) onControl(p mmal.Port, buf mmal.Buffer) {
	defer buf.Release()

	switch buf.Cmd() {
	case mmal.EventParameterChanged:
		buf.Lock()
		ev, ok := mmal.DecodeCameraSettings(buf)
		buf.Unlock()
		if !ok {
			d.log.Debug().Msg("undecodable parameter change event")
			return
		}
		d.log.Debug().
			Uint32("exposure", ev.Exposure).
			Str("analog_gain", ev.AnalogGain.String()).
			Str("digital_gain", ev.DigitalGain.String()).
			Msg("camera settings changed")
	case mmal.EventError:
		d.log.Warn().Str("port", p.Name()).Msg("camera reported an error event")
	default:
		d.log.Debug().Uint32("cmd", uint32(buf.Cmd())).Msg("unhandled control event")
	}
}
