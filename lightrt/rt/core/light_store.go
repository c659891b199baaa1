package core

import "github.com/go-gl/mathgl/mgl32"

type LightID uint32

// LightStore keeps the packed lights in upload order. Ids stay stable while
// indices may move on removal.
type LightStore struct {
	lights []GpuLight
	ids    []LightID
	index  map[LightID]int
	next   LightID
	dirty  bool
}

func NewLightStore() *LightStore {
	return &LightStore{
		index: make(map[LightID]int),
	}
}

func (s *LightStore) Add(light Light) LightID {
	id := s.next
	s.next++

	s.index[id] = len(s.lights)
	s.lights = append(s.lights, light.Serialize())
	s.ids = append(s.ids, id)
	s.dirty = true
	return id
}

// Update replaces the current fields; the previous-frame fields keep what
// was committed at the end of the last frame.
func (s *LightStore) Update(id LightID, light Light) bool {
	idx, ok := s.index[id]
	if !ok {
		return false
	}
	packed := light.Serialize()
	prev := s.lights[idx]
	packed.PrevD0, packed.PrevD1, packed.PrevD2 = prev.PrevD0, prev.PrevD1, prev.PrevD2
	s.lights[idx] = packed
	s.dirty = true
	return true
}

func (s *LightStore) Remove(id LightID) bool {
	idx, ok := s.index[id]
	if !ok {
		return false
	}
	last := len(s.lights) - 1
	if idx != last {
		s.lights[idx] = s.lights[last]
		s.ids[idx] = s.ids[last]
		s.index[s.ids[idx]] = idx

		// History reservoirs pointing at this slot belong to another light now.
		s.lights[idx].PrevD0 = mgl32.Vec4{}
		s.lights[idx].PrevD1 = mgl32.Vec4{}
		s.lights[idx].PrevD2 = mgl32.Vec4{}
	}
	s.lights = s.lights[:last]
	s.ids = s.ids[:last]
	delete(s.index, id)
	s.dirty = true
	return true
}

func (s *LightStore) Get(id LightID) (GpuLight, bool) {
	idx, ok := s.index[id]
	if !ok {
		return GpuLight{}, false
	}
	return s.lights[idx], true
}

func (s *LightStore) Lights() []GpuLight { return s.lights }
func (s *LightStore) Len() int           { return len(s.lights) }
func (s *LightStore) Dirty() bool        { return s.dirty }
func (s *LightStore) ClearDirty()        { s.dirty = false }

// Flush commits every light at the end of a frame.
func (s *LightStore) Flush() {
	for i := range s.lights {
		if s.lights[i].DidChange() {
			s.lights[i].Commit()
			s.dirty = true
		}
	}
}
