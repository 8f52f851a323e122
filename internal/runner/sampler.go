package runner

import (
	"io/fs"
	"path/filepath"
	"sync"

	psutilNet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Sampler measures a process tree. It keeps process handles between samples
// so CPU percentages are computed over the interval since the last call.
type Sampler struct {
	mu    sync.Mutex
	procs map[int32]*process.Process
}

func NewSampler() *Sampler {
	return &Sampler{procs: make(map[int32]*process.Process)}
}

// Sample returns CPU percent (100 = one core) and resident memory for pid and
// all of its descendants.
func (s *Sampler) Sample(pid int32) (float64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.handle(pid)
	if err != nil {
		return 0, 0, err
	}

	var cpu float64
	var rss int64
	seen := make(map[int32]bool)

	var walk func(p *process.Process)
	walk = func(p *process.Process) {
		if seen[p.Pid] {
			return
		}
		seen[p.Pid] = true

		if pct, err := p.Percent(0); err == nil {
			cpu += pct
		}
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			rss += int64(mem.RSS)
		}

		children, err := p.Children()
		if err != nil {
			return
		}
		for _, c := range children {
			h, err := s.handle(c.Pid)
			if err != nil {
				continue
			}
			walk(h)
		}
	}
	walk(root)

	for id := range s.procs {
		if !seen[id] {
			delete(s.procs, id)
		}
	}
	return cpu, rss, nil
}

// Forget drops cached handles of a process tree that exited.
func (s *Sampler) Forget(pid int32) {
	s.mu.Lock()
	delete(s.procs, pid)
	s.mu.Unlock()
}

func (s *Sampler) handle(pid int32) (*process.Process, error) {
	if p, ok := s.procs[pid]; ok {
		return p, nil
	}
	p, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	s.procs[pid] = p
	return p, nil
}

// DirSize sums regular file sizes below root. Unreadable entries are skipped.
func DirSize(root string) int64 {
	var total int64
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// hostNetCounters returns the host-wide received and sent byte counters.
func hostNetCounters() (int64, int64) {
	counters, err := psutilNet.IOCounters(false)
	if err != nil || len(counters) == 0 {
		return 0, 0
	}
	return int64(counters[0].BytesRecv), int64(counters[0].BytesSent)
}
