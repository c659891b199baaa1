package gpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevice(t *testing.T) *wgpu.Device {
	instance := wgpu.CreateInstance(nil)
	t.Cleanup(instance.Release)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		t.Skipf("no webgpu adapter: %v", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		t.Skipf("no webgpu device: %v", err)
	}
	t.Cleanup(device.Release)
	return device
}

func sceneLayout(t *testing.T, device *wgpu.Device) *wgpu.BindGroupLayout {
	entries := make([]wgpu.BindGroupLayoutEntry, 4)
	for i := range entries {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
		}
	}
	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "scene",
		Entries: entries,
	})
	require.NoError(t, err)
	t.Cleanup(bgl.Release)
	return bgl
}

func TestUploaderRecreatesBindGroup(t *testing.T) {
	device := testDevice(t)
	layout := sceneLayout(t, device)

	u := NewSceneUploader(device)
	defer u.Release()

	small := SceneBytes{Triangles: make([]byte, 64), Nodes: make([]byte, 64), Lights: make([]byte, 16), Materials: make([]byte, 16)}
	require.True(t, u.Upload(small), "first upload allocates")
	u.CreateBindGroup(layout)
	require.NotNil(t, u.BindGroup)

	assert.False(t, u.Upload(small), "same sizes reuse the buffers")
	assert.NotNil(t, u.BindGroup)

	big := small
	big.Triangles = make([]byte, HeadroomGeometry*2)
	assert.True(t, u.Upload(big))
	assert.Nil(t, u.BindGroup, "a grown buffer invalidates the bind group")

	u.CreateBindGroup(layout)
	assert.NotNil(t, u.BindGroup)
}
