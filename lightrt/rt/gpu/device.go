package gpu

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/gekko3d/lumen/lightrt/rt/bvh"
	"golang.org/x/sync/errgroup"
)

// WorkgroupSize is the edge of a square workgroup.
const WorkgroupSize = 8

// Workgroup is the memory shared by the invocations of one workgroup.
type Workgroup struct {
	Stack bvh.Stack
}

type Invocation struct {
	GlobalID    [2]uint32
	WorkgroupID [2]uint32
	LocalIdx    uint32
	Shared      *Workgroup
}

// Device executes compute dispatches on the CPU. Workgroups run
// concurrently; the invocations of a workgroup run one after another.
type Device struct {
	workers int
}

func NewDevice(workers int) *Device {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Device{workers: workers}
}

func (d *Device) Workers() int { return d.workers }

// Dispatch runs kernel for every invocation of groups[0]×groups[1]
// workgroups and returns once all of them finished.
func (d *Device) Dispatch(ctx context.Context, groups [2]uint32, kernel func(*Invocation)) error {
	total := uint64(groups[0]) * uint64(groups[1])
	if total == 0 {
		return ctx.Err()
	}

	var next atomic.Uint64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < min(d.workers, int(total)); w++ {
		g.Go(func() error {
			var shared Workgroup
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				i := next.Add(1) - 1
				if i >= total {
					return nil
				}
				wg := [2]uint32{uint32(i % uint64(groups[0])), uint32(i / uint64(groups[0]))}
				runWorkgroup(wg, &shared, kernel)
			}
		})
	}
	return g.Wait()
}

func runWorkgroup(id [2]uint32, shared *Workgroup, kernel func(*Invocation)) {
	inv := Invocation{WorkgroupID: id, Shared: shared}
	for ly := uint32(0); ly < WorkgroupSize; ly++ {
		for lx := uint32(0); lx < WorkgroupSize; lx++ {
			inv.GlobalID = [2]uint32{id[0]*WorkgroupSize + lx, id[1]*WorkgroupSize + ly}
			inv.LocalIdx = ly*WorkgroupSize + lx
			kernel(&inv)
		}
	}
}

// Workgroups is the dispatch size covering width×height invocations.
func Workgroups(width, height uint32) [2]uint32 {
	return [2]uint32{
		(width + WorkgroupSize - 1) / WorkgroupSize,
		(height + WorkgroupSize - 1) / WorkgroupSize,
	}
}
