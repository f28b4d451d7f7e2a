package mmaltest

import "github.com/pedrosland/rascam/pkg/mmal"

type Port struct {
	comp *Component
	name string

	enabled bool
	cb      mmal.BufferCallback

	format    mmal.VideoFormat
	committed bool
	bufCfg    mmal.BufferConfig

	pool   *Pool
	queued []*Buffer

	// Params records every typed parameter set on this port.
	Params map[string]any

	profile, level uint32
}

func newPort(c *Component, name string, cfg mmal.BufferConfig) *Port {
	cfg.Num = cfg.NumRecommended
	cfg.Size = cfg.SizeRecommended
	return &Port{comp: c, name: name, bufCfg: cfg, Params: map[string]any{}}
}

func (p *Port) drv() *Driver { return p.comp.drv }

func (p *Port) Name() string { return p.name }

func (p *Port) Enabled() bool {
	p.drv().mu.Lock()
	defer p.drv().mu.Unlock()
	return p.enabled
}

func (p *Port) Enable(cb mmal.BufferCallback) error {
	if err := p.drv().checkOp("enable port %s", p.name); err != nil {
		return err
	}
	p.drv().mu.Lock()
	p.enabled = true
	p.cb = cb
	p.drv().mu.Unlock()
	return nil
}

// Disable flushes buffers queued on the port back to their pool, matching
// the native behaviour.
func (p *Port) Disable() error {
	if err := p.drv().checkOp("disable port %s", p.name); err != nil {
		return err
	}
	p.drv().mu.Lock()
	p.enabled = false
	p.cb = nil
	queued := p.queued
	p.queued = nil
	p.drv().mu.Unlock()

	for _, b := range queued {
		b.Release()
	}
	return nil
}

func (p *Port) Format() mmal.VideoFormat {
	p.drv().mu.Lock()
	defer p.drv().mu.Unlock()
	return p.format
}

func (p *Port) SetFormat(f mmal.VideoFormat) error {
	if err := p.drv().checkOp("commit format %s", p.name); err != nil {
		return err
	}

	// The real driver rejects unaligned buffer geometry.
	if f.Width%32 != 0 || f.Height%16 != 0 {
		return mmal.Errorf("commit format "+p.name, mmal.StatusInvalid)
	}

	p.drv().mu.Lock()
	p.format = f
	p.committed = true
	p.drv().mu.Unlock()
	return nil
}

func (p *Port) BufferConfig() mmal.BufferConfig {
	p.drv().mu.Lock()
	defer p.drv().mu.Unlock()
	return p.bufCfg
}

func (p *Port) SetBufferConfig(num, size uint32) {
	p.drv().mu.Lock()
	p.bufCfg.Num = num
	p.bufCfg.Size = size
	p.drv().mu.Unlock()
}

func (p *Port) setParam(name string, v any) error {
	if err := p.drv().checkOp("set %s %s", name, p.name); err != nil {
		return err
	}
	p.drv().mu.Lock()
	p.Params[name] = v
	p.drv().mu.Unlock()
	return nil
}

func (p *Port) SetCameraNum(n int32) error       { return p.setParam("camera num", n) }
func (p *Port) SetCapture(on bool) error         { return p.setParam("capture", on) }
func (p *Port) SetISO(iso uint32) error          { return p.setParam("iso", iso) }
func (p *Port) SetShutterSpeed(us uint32) error  { return p.setParam("shutter speed", us) }
func (p *Port) SetZeroCopy(on bool) error        { return p.setParam("zero copy", on) }
func (p *Port) SetJPEGQuality(q uint32) error    { return p.setParam("jpeg quality", q) }
func (p *Port) SetJPEGRestartInterval(n uint32) error {
	return p.setParam("jpeg restart interval", n)
}
func (p *Port) SetIntraperiod(n uint32) error   { return p.setParam("intraperiod", n) }
func (p *Port) SetInlineHeaders(on bool) error  { return p.setParam("inline headers", on) }
func (p *Port) SetSEI(on bool) error            { return p.setParam("sei", on) }

func (p *Port) RequestSettingsEvents() error { return p.setParam("settings events", true) }

func (p *Port) SetCameraConfig(cfg mmal.CameraConfig) error {
	if err := p.drv().checkOp("set camera config %s", p.name); err != nil {
		return err
	}
	p.drv().mu.Lock()
	p.Params["camera config"] = cfg
	p.drv().mu.Unlock()
	return nil
}

// h264MaxBitrate is the bitrate ceiling per H.264 level, in bits/s.
var h264MaxBitrate = map[uint32]uint32{
	mmal.VideoLevelH2642:  2_000_000,
	mmal.VideoLevelH2643:  10_000_000,
	mmal.VideoLevelH26431: 14_000_000,
	mmal.VideoLevelH2644:  20_000_000,
	mmal.VideoLevelH26441: 50_000_000,
	mmal.VideoLevelH26442: 50_000_000,
}

func (p *Port) SetVideoProfile(profile, level uint32) error {
	if err := p.drv().checkOp("set video profile %s", p.name); err != nil {
		return err
	}

	p.drv().mu.Lock()
	bitrate := p.format.Bitrate
	p.drv().mu.Unlock()

	// The firmware rejects a profile/level pair that cannot carry the
	// committed bitrate.
	if max, ok := h264MaxBitrate[level]; ok && bitrate > max {
		return mmal.Errorf("set video profile "+p.name, mmal.StatusInvalid)
	}

	p.drv().mu.Lock()
	p.profile = profile
	p.level = level
	p.Params["video profile"] = [2]uint32{profile, level}
	p.drv().mu.Unlock()
	return nil
}

func (p *Port) CameraInfo() ([]mmal.CameraDetail, error) {
	if err := p.drv().checkOp("get camera info %s", p.name); err != nil {
		return nil, err
	}
	return append([]mmal.CameraDetail(nil), p.drv().Cameras...), nil
}

func (p *Port) RGBOrderFixed() bool { return !p.drv().RGBOrderOld }

func (p *Port) CreatePool(num, size uint32) (mmal.Pool, error) {
	if err := p.drv().checkOp("create pool %s", p.name); err != nil {
		return nil, err
	}

	pool := &Pool{port: p, size: size}
	for i := uint32(0); i < num; i++ {
		pool.free = append(pool.free, &Buffer{pool: pool, data: make([]byte, 0, size), released: true})
	}

	p.drv().mu.Lock()
	p.pool = pool
	p.drv().mu.Unlock()
	return pool, nil
}

func (p *Port) ConnectTo(in mmal.Port, flags uint32) (mmal.Connection, error) {
	dst := in.(*Port)
	if err := p.drv().checkOp("create connection %s->%s", p.name, dst.name); err != nil {
		return nil, err
	}
	return &Connection{drv: p.drv(), out: p, in: dst}, nil
}

func (p *Port) SendBuffer(b mmal.Buffer) error {
	if err := p.drv().checkOp("send buffer %s", p.name); err != nil {
		return err
	}

	buf := b.(*Buffer)
	p.drv().mu.Lock()
	if !p.enabled {
		p.drv().mu.Unlock()
		p.drv().reportMisuse("send buffer to disabled port %s", p.name)
		return mmal.Errorf("send buffer "+p.name, mmal.StatusNotReady)
	}
	buf.released = false
	p.queued = append(p.queued, buf)
	p.drv().mu.Unlock()
	return nil
}

// QueuedLen reports how many buffers are waiting on the port. Test helper.
func (p *Port) QueuedLen() int {
	p.drv().mu.Lock()
	defer p.drv().mu.Unlock()
	return len(p.queued)
}
