package batch

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/shirou/gopsutil/v3/process"
)

// reclaim forces a collection and returns freed pages to the OS.
func reclaim() {
	runtime.GC()
	debug.FreeOSMemory()
}

// residentBytes samples the process RSS. Zero means the platform could not
// report it.
func residentBytes() uint64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	mi, err := p.MemoryInfo()
	if err != nil || mi == nil {
		return 0
	}
	return mi.RSS
}
