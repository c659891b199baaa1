package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	HeadroomGeometry = 256 * 1024
	HeadroomTables   = 16 * 1024
)

// SceneBytes is the packed scene snapshot shared by every camera.
type SceneBytes struct {
	Triangles []byte
	Nodes     []byte
	Lights    []byte
	Materials []byte
}

// SceneUploader mirrors the scene snapshot into webgpu storage buffers.
type SceneUploader struct {
	Device *wgpu.Device

	TrianglesBuf *wgpu.Buffer
	NodesBuf     *wgpu.Buffer
	LightsBuf    *wgpu.Buffer
	MaterialsBuf *wgpu.Buffer

	BindGroup *wgpu.BindGroup
}

func NewSceneUploader(device *wgpu.Device) *SceneUploader {
	return &SceneUploader{Device: device}
}

// ensureBuffer grows buf when data does not fit and writes data into it.
// It returns true when the buffer was recreated.
func (u *SceneUploader) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage, headroom int) bool {
	neededSize := uint64(len(data) + headroom)
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}
	// zero-sized storage bindings are invalid
	neededSize = max(neededSize, 16)

	current := *buf
	if current != nil && current.GetSize() >= neededSize {
		if len(data) > 0 {
			u.Device.GetQueue().WriteBuffer(current, 0, data)
		}
		return false
	}

	if current != nil {
		current.Release()
	}
	newBuf, err := u.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  neededSize,
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	*buf = newBuf

	if len(data) > 0 {
		u.Device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return true
}

// Upload writes the snapshot. When it returns true the bind group built
// by CreateBindGroup is stale.
func (u *SceneUploader) Upload(scene SceneBytes) bool {
	recreated := false
	recreated = u.ensureBuffer("TrianglesBuf", &u.TrianglesBuf, scene.Triangles, wgpu.BufferUsageStorage, HeadroomGeometry) || recreated
	recreated = u.ensureBuffer("BvhNodesBuf", &u.NodesBuf, scene.Nodes, wgpu.BufferUsageStorage, HeadroomGeometry) || recreated
	recreated = u.ensureBuffer("LightsBuf", &u.LightsBuf, scene.Lights, wgpu.BufferUsageStorage, HeadroomTables) || recreated
	recreated = u.ensureBuffer("MaterialsBuf", &u.MaterialsBuf, scene.Materials, wgpu.BufferUsageStorage, HeadroomTables) || recreated
	if recreated && u.BindGroup != nil {
		u.BindGroup.Release()
		u.BindGroup = nil
	}
	return recreated
}

// CreateBindGroup binds the four scene buffers at bindings 0..3 of layout.
// The engine only uploads; a consumer that dispatches real webgpu passes
// calls this once Upload returned true (or BindGroup is nil) and before it
// binds the scene group.
func (u *SceneUploader) CreateBindGroup(layout *wgpu.BindGroupLayout) {
	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: u.TrianglesBuf, Size: wgpu.WholeSize},
		{Binding: 1, Buffer: u.NodesBuf, Size: wgpu.WholeSize},
		{Binding: 2, Buffer: u.LightsBuf, Size: wgpu.WholeSize},
		{Binding: 3, Buffer: u.MaterialsBuf, Size: wgpu.WholeSize},
	}
	bg, err := u.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "SceneBindGroup",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		panic(err)
	}
	u.BindGroup = bg
}

func (u *SceneUploader) Release() {
	for _, b := range []**wgpu.Buffer{&u.TrianglesBuf, &u.NodesBuf, &u.LightsBuf, &u.MaterialsBuf} {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
	if u.BindGroup != nil {
		u.BindGroup.Release()
		u.BindGroup = nil
	}
}
