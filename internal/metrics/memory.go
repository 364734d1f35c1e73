package metrics

import "runtime"

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc uint64 // bytes in use by the comparison
	Sys       uint64 // total bytes obtained from the OS
	NumGC     uint32 // completed GC cycles
}

// ReadMemory reads current memory statistics.
func ReadMemory() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{HeapAlloc: m.HeapAlloc, Sys: m.Sys, NumGC: m.NumGC}
}
