//go:build linux && cgo

// Package vc binds pkg/mmal to the Broadcom VideoCore firmware through the
// userland MMAL client libraries shipped in /opt/vc.
package vc

/*
#cgo CFLAGS: -I/opt/vc/include
#cgo LDFLAGS: -L/opt/vc/lib -lmmal -lmmal_core -lmmal_util -lmmal_vc_client -lvcos -lbcm_host

#include <stdlib.h>
#include <bcm_host.h>
#include <interface/mmal/mmal.h>
#include <interface/mmal/mmal_parameters_camera.h>
#include <interface/mmal/util/mmal_default_components.h>
#include <interface/mmal/util/mmal_util.h>
#include <interface/mmal/util/mmal_util_params.h>
#include <interface/mmal/util/mmal_connection.h>

void rascamBufferCallback(MMAL_PORT_T *port, MMAL_BUFFER_HEADER_T *buf);

static MMAL_STATUS_T rascam_port_enable(MMAL_PORT_T *port) {
	return mmal_port_enable(port, rascamBufferCallback);
}

static MMAL_STATUS_T rascam_get_camera_info(MMAL_PORT_T *port, MMAL_PARAMETER_CAMERA_INFO_T *info) {
	info->hdr.id = MMAL_PARAMETER_CAMERA_INFO;
	info->hdr.size = sizeof(MMAL_PARAMETER_CAMERA_INFO_T);
	return mmal_port_parameter_get(port, &info->hdr);
}

static MMAL_STATUS_T rascam_set_camera_config(MMAL_PORT_T *port, MMAL_PARAMETER_CAMERA_CONFIG_T *cfg) {
	cfg->hdr.id = MMAL_PARAMETER_CAMERA_CONFIG;
	cfg->hdr.size = sizeof(MMAL_PARAMETER_CAMERA_CONFIG_T);
	return mmal_port_parameter_set(port, &cfg->hdr);
}

static MMAL_STATUS_T rascam_set_video_profile(MMAL_PORT_T *port, uint32_t profile, uint32_t level) {
	MMAL_PARAMETER_VIDEO_PROFILE_T p = {
		{MMAL_PARAMETER_PROFILE, sizeof(MMAL_PARAMETER_VIDEO_PROFILE_T)},
	};
	p.profile[0].profile = profile;
	p.profile[0].level = level;
	return mmal_port_parameter_set(port, &p.hdr);
}

static MMAL_STATUS_T rascam_request_settings_events(MMAL_PORT_T *port) {
	MMAL_PARAMETER_CHANGE_EVENT_REQUEST_T req = {
		{MMAL_PARAMETER_CHANGE_EVENT_REQUEST, sizeof(MMAL_PARAMETER_CHANGE_EVENT_REQUEST_T)},
		MMAL_PARAMETER_CAMERA_SETTINGS, 1,
	};
	return mmal_port_parameter_set(port, &req.hdr);
}

typedef struct {
	MMAL_PARAMETER_HEADER_T hdr;
	MMAL_FOURCC_T encoding[32];
} RASCAM_PARAMETER_ENCODINGS_T;

static int rascam_supports_rgb_order(MMAL_PORT_T *port) {
	// Firmware with the RGB24/BGR24 order fix lists RGB24 among the
	// supported encodings. Older firmware only lists the swapped pair.
	RASCAM_PARAMETER_ENCODINGS_T enc = {
		{MMAL_PARAMETER_SUPPORTED_ENCODINGS, sizeof(RASCAM_PARAMETER_ENCODINGS_T)},
	};
	if (mmal_port_parameter_get(port, &enc.hdr) != MMAL_SUCCESS) {
		return 0;
	}
	size_t n = (enc.hdr.size - sizeof(enc.hdr)) / sizeof(MMAL_FOURCC_T);
	for (size_t i = 0; i < n; i++) {
		if (enc.encoding[i] == MMAL_ENCODING_RGB24) {
			return 1;
		}
	}
	return 0;
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/pedrosland/rascam/pkg/mmal"
)

var initOnce sync.Once

// Init boots the VideoCore host interface. Safe to call more than once;
// only the first call does anything. Driver calls it implicitly.
func Init() {
	initOnce.Do(func() {
		C.bcm_host_init()
	})
}

// Driver returns the VideoCore implementation of mmal.Driver.
func Driver() (mmal.Driver, error) {
	Init()
	return driver{}, nil
}

type driver struct{}

func (driver) ComponentCreate(name string) (mmal.Component, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var ptr *C.MMAL_COMPONENT_T
	if s := C.mmal_component_create(cname, &ptr); s != C.MMAL_SUCCESS {
		return nil, mmal.Errorf("create component "+name, mmal.Status(s))
	}
	return &component{ptr: ptr, name: name}, nil
}

type component struct {
	ptr  *C.MMAL_COMPONENT_T
	name string
}

func (c *component) Name() string { return c.name }

func (c *component) Control() mmal.Port {
	return wrapPort(c.ptr.control, c.name+":ctr")
}

func (c *component) Input(i int) mmal.Port {
	ports := unsafe.Slice(c.ptr.input, int(c.ptr.input_num))
	return wrapPort(ports[i], c.name+":in")
}

func (c *component) Output(i int) mmal.Port {
	ports := unsafe.Slice(c.ptr.output, int(c.ptr.output_num))
	return wrapPort(ports[i], c.name+":out")
}

func (c *component) OutputCount() int { return int(c.ptr.output_num) }

func (c *component) Enable() error {
	if s := C.mmal_component_enable(c.ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("enable component "+c.name, mmal.Status(s))
	}
	return nil
}

func (c *component) Disable() error {
	if s := C.mmal_component_disable(c.ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("disable component "+c.name, mmal.Status(s))
	}
	return nil
}

func (c *component) Destroy() error {
	if s := C.mmal_component_destroy(c.ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("destroy component "+c.name, mmal.Status(s))
	}
	return nil
}

type port struct {
	ptr  *C.MMAL_PORT_T
	name string
}

func (p *port) Name() string { return p.name }

func (p *port) Enabled() bool { return p.ptr.is_enabled != 0 }

func (p *port) Enable(cb mmal.BufferCallback) error {
	registerCallback(p, cb)
	if s := C.rascam_port_enable(p.ptr); s != C.MMAL_SUCCESS {
		unregisterCallback(p)
		return mmal.Errorf("enable port "+p.name, mmal.Status(s))
	}
	return nil
}

func (p *port) Disable() error {
	if s := C.mmal_port_disable(p.ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("disable port "+p.name, mmal.Status(s))
	}
	unregisterCallback(p)
	return nil
}

func (p *port) Format() mmal.VideoFormat {
	f := p.ptr.format
	video := (*C.MMAL_VIDEO_FORMAT_T)(unsafe.Pointer(f.es))
	return mmal.VideoFormat{
		Encoding:        mmal.FourCC(f.encoding),
		EncodingVariant: mmal.FourCC(f.encoding_variant),
		Width:           uint32(video.width),
		Height:          uint32(video.height),
		Crop: mmal.Rect{
			X:      int32(video.crop.x),
			Y:      int32(video.crop.y),
			Width:  int32(video.crop.width),
			Height: int32(video.crop.height),
		},
		FrameRate: mmal.Rational{Num: int32(video.frame_rate.num), Den: int32(video.frame_rate.den)},
		Bitrate:   uint32(f.bitrate),
	}
}

func (p *port) SetFormat(f mmal.VideoFormat) error {
	nf := p.ptr.format
	nf.encoding = C.uint32_t(f.Encoding)
	nf.encoding_variant = C.uint32_t(f.EncodingVariant)
	nf.bitrate = C.uint32_t(f.Bitrate)

	video := (*C.MMAL_VIDEO_FORMAT_T)(unsafe.Pointer(nf.es))
	video.width = C.uint32_t(f.Width)
	video.height = C.uint32_t(f.Height)
	video.crop.x = C.int32_t(f.Crop.X)
	video.crop.y = C.int32_t(f.Crop.Y)
	video.crop.width = C.int32_t(f.Crop.Width)
	video.crop.height = C.int32_t(f.Crop.Height)
	video.frame_rate.num = C.int32_t(f.FrameRate.Num)
	video.frame_rate.den = C.int32_t(f.FrameRate.Den)

	if s := C.mmal_port_format_commit(p.ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("commit format "+p.name, mmal.Status(s))
	}
	return nil
}

func (p *port) BufferConfig() mmal.BufferConfig {
	return mmal.BufferConfig{
		Num:             uint32(p.ptr.buffer_num),
		Size:            uint32(p.ptr.buffer_size),
		NumMin:          uint32(p.ptr.buffer_num_min),
		SizeMin:         uint32(p.ptr.buffer_size_min),
		NumRecommended:  uint32(p.ptr.buffer_num_recommended),
		SizeRecommended: uint32(p.ptr.buffer_size_recommended),
	}
}

func (p *port) SetBufferConfig(num, size uint32) {
	p.ptr.buffer_num = C.uint32_t(num)
	p.ptr.buffer_size = C.uint32_t(size)
}

func (p *port) setBool(op string, id C.uint32_t, on bool) error {
	v := C.MMAL_BOOL_T(0)
	if on {
		v = 1
	}
	if s := C.mmal_port_parameter_set_boolean(p.ptr, id, v); s != C.MMAL_SUCCESS {
		return mmal.Errorf("set "+op+" "+p.name, mmal.Status(s))
	}
	return nil
}

func (p *port) setUint32(op string, id C.uint32_t, v uint32) error {
	if s := C.mmal_port_parameter_set_uint32(p.ptr, id, C.uint32_t(v)); s != C.MMAL_SUCCESS {
		return mmal.Errorf("set "+op+" "+p.name, mmal.Status(s))
	}
	return nil
}

func (p *port) SetCameraNum(n int32) error {
	if s := C.mmal_port_parameter_set_int32(p.ptr, C.MMAL_PARAMETER_CAMERA_NUM, C.int32_t(n)); s != C.MMAL_SUCCESS {
		return mmal.Errorf("set camera num "+p.name, mmal.Status(s))
	}
	return nil
}

func (p *port) SetCapture(on bool) error {
	return p.setBool("capture", C.MMAL_PARAMETER_CAPTURE, on)
}

func (p *port) SetISO(iso uint32) error {
	return p.setUint32("iso", C.MMAL_PARAMETER_ISO, iso)
}

func (p *port) SetShutterSpeed(us uint32) error {
	return p.setUint32("shutter speed", C.MMAL_PARAMETER_SHUTTER_SPEED, us)
}

func (p *port) SetZeroCopy(on bool) error {
	return p.setBool("zero copy", C.MMAL_PARAMETER_ZERO_COPY, on)
}

func (p *port) SetJPEGQuality(q uint32) error {
	return p.setUint32("jpeg quality", C.MMAL_PARAMETER_JPEG_Q_FACTOR, q)
}

func (p *port) SetJPEGRestartInterval(n uint32) error {
	return p.setUint32("jpeg restart interval", C.MMAL_PARAMETER_JPEG_RESTART_INTERVAL, n)
}

func (p *port) SetIntraperiod(n uint32) error {
	return p.setUint32("intraperiod", C.MMAL_PARAMETER_INTRAPERIOD, n)
}

func (p *port) SetInlineHeaders(on bool) error {
	return p.setBool("inline headers", C.MMAL_PARAMETER_VIDEO_ENCODE_INLINE_HEADER, on)
}

func (p *port) SetSEI(on bool) error {
	return p.setBool("sei", C.MMAL_PARAMETER_VIDEO_ENCODE_SEI_ENABLE, on)
}

func (p *port) SetCameraConfig(cfg mmal.CameraConfig) error {
	var c C.MMAL_PARAMETER_CAMERA_CONFIG_T
	c.max_stills_w = C.uint32_t(cfg.MaxStillsW)
	c.max_stills_h = C.uint32_t(cfg.MaxStillsH)
	c.stills_yuv422 = cbool(cfg.StillsYUV422)
	c.one_shot_stills = cbool(cfg.OneShotStills)
	c.max_preview_video_w = C.uint32_t(cfg.MaxPreviewVideoW)
	c.max_preview_video_h = C.uint32_t(cfg.MaxPreviewVideoH)
	c.num_preview_video_frames = C.uint32_t(cfg.NumPreviewVideoFrames)
	c.stills_capture_circular_buffer_height = C.uint32_t(cfg.StillsCircularBufferH)
	c.fast_preview_resume = cbool(cfg.FastPreviewResume)
	if cfg.UseSTCTimestamp {
		c.use_stc_timestamp = C.MMAL_PARAM_TIMESTAMP_MODE_RESET_STC
	}

	if s := C.rascam_set_camera_config(p.ptr, &c); s != C.MMAL_SUCCESS {
		return mmal.Errorf("set camera config "+p.name, mmal.Status(s))
	}
	return nil
}

func (p *port) RequestSettingsEvents() error {
	if s := C.rascam_request_settings_events(p.ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("request settings events "+p.name, mmal.Status(s))
	}
	return nil
}

func (p *port) SetVideoProfile(profile, level uint32) error {
	if s := C.rascam_set_video_profile(p.ptr, C.uint32_t(profile), C.uint32_t(level)); s != C.MMAL_SUCCESS {
		return mmal.Errorf("set video profile "+p.name, mmal.Status(s))
	}
	return nil
}

func (p *port) CameraInfo() ([]mmal.CameraDetail, error) {
	var info C.MMAL_PARAMETER_CAMERA_INFO_T
	if s := C.rascam_get_camera_info(p.ptr, &info); s != C.MMAL_SUCCESS {
		return nil, mmal.Errorf("get camera info "+p.name, mmal.Status(s))
	}

	details := make([]mmal.CameraDetail, int(info.num_cameras))
	for i := range details {
		cam := info.cameras[i]
		details[i] = mmal.CameraDetail{
			PortID:    uint32(cam.port_id),
			MaxWidth:  uint32(cam.max_width),
			MaxHeight: uint32(cam.max_height),
			Lens:      cam.lens_present != 0,
			Name:      C.GoString(&cam.camera_name[0]),
		}
	}
	return details, nil
}

func (p *port) RGBOrderFixed() bool {
	return C.rascam_supports_rgb_order(p.ptr) != 0
}

func (p *port) CreatePool(num, size uint32) (mmal.Pool, error) {
	ptr := C.mmal_port_pool_create(p.ptr, C.uint(num), C.uint32_t(size))
	if ptr == nil {
		return nil, mmal.Errorf("create pool "+p.name, mmal.StatusMax)
	}
	return &pool{ptr: ptr, port: p}, nil
}

func (p *port) ConnectTo(in mmal.Port, flags uint32) (mmal.Connection, error) {
	dst := in.(*port)

	var ptr *C.MMAL_CONNECTION_T
	cflags := C.uint32_t(0)
	if flags&mmal.ConnectionTunnelling != 0 {
		cflags |= C.MMAL_CONNECTION_FLAG_TUNNELLING
	}
	if flags&mmal.ConnectionAllocationOnInput != 0 {
		cflags |= C.MMAL_CONNECTION_FLAG_ALLOCATION_ON_INPUT
	}
	if s := C.mmal_connection_create(&ptr, p.ptr, dst.ptr, cflags); s != C.MMAL_SUCCESS {
		return nil, mmal.Errorf("create connection "+p.name+"->"+dst.name, mmal.Status(s))
	}
	return &connection{ptr: ptr, name: p.name + "->" + dst.name}, nil
}

func (p *port) SendBuffer(b mmal.Buffer) error {
	if s := C.mmal_port_send_buffer(p.ptr, b.(*buffer).ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("send buffer "+p.name, mmal.Status(s))
	}
	return nil
}

type pool struct {
	ptr  *C.MMAL_POOL_T
	port *port
}

func (p *pool) Get() (mmal.Buffer, bool) {
	ptr := C.mmal_queue_get(p.ptr.queue)
	if ptr == nil {
		return nil, false
	}
	return &buffer{ptr: ptr}, true
}

func (p *pool) QueueLen() int {
	return int(C.mmal_queue_length(p.ptr.queue))
}

func (p *pool) Destroy() {
	C.mmal_port_pool_destroy(p.port.ptr, p.ptr)
}

type buffer struct {
	ptr *C.MMAL_BUFFER_HEADER_T
}

func (b *buffer) Bytes() []byte {
	if b.ptr.length == 0 {
		return nil
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(b.ptr.data)), int(b.ptr.offset)+int(b.ptr.length))
	return data[b.ptr.offset:]
}

func (b *buffer) Flags() uint32 { return uint32(b.ptr.flags) }

func (b *buffer) Cmd() mmal.FourCC { return mmal.FourCC(b.ptr.cmd) }

func (b *buffer) Lock() { C.mmal_buffer_header_mem_lock(b.ptr) }

func (b *buffer) Unlock() { C.mmal_buffer_header_mem_unlock(b.ptr) }

func (b *buffer) Release() { C.mmal_buffer_header_release(b.ptr) }

type connection struct {
	ptr  *C.MMAL_CONNECTION_T
	name string
}

func (c *connection) Enable() error {
	if s := C.mmal_connection_enable(c.ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("enable connection "+c.name, mmal.Status(s))
	}
	return nil
}

func (c *connection) Disable() error {
	if s := C.mmal_connection_disable(c.ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("disable connection "+c.name, mmal.Status(s))
	}
	return nil
}

func (c *connection) Destroy() error {
	if s := C.mmal_connection_destroy(c.ptr); s != C.MMAL_SUCCESS {
		return mmal.Errorf("destroy connection "+c.name, mmal.Status(s))
	}
	return nil
}

func cbool(b bool) C.MMAL_BOOL_T {
	if b {
		return 1
	}
	return 0
}
