package metrics

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo stores the metadata of the machine driving the benchmark. It
// travels with the indexed documents so latencies can be compared across
// environments.
type HostInfo struct {
	Hostname   string  `json:"hostname"`
	Platform   string  `json:"platform"`
	Kernel     string  `json:"kernel"`
	Arch       string  `json:"arch"`
	CPUCount   int     `json:"cpuCount"`
	CPUFreqMhz float64 `json:"cpuFreqMhz"`
	RAMGb      float64 `json:"ramGb"`
}

// Host gathers metadata about the local machine. Collection failures leave
// the affected fields at their zero value; the benchmark runs regardless.
func Host() HostInfo {
	info := HostInfo{Arch: runtime.GOARCH}
	hostStat, err := host.Info()
	if err == nil {
		info.Hostname = hostStat.Hostname
		info.Platform = hostStat.Platform
		info.Kernel = hostStat.KernelVersion
	}
	cpuStat, err := cpu.Info()
	if err == nil && len(cpuStat) > 0 {
		total := 0.0
		for _, c := range cpuStat {
			total += c.Mhz
		}
		info.CPUCount = len(cpuStat)
		info.CPUFreqMhz = total / float64(len(cpuStat))
	}
	vmStat, err := mem.VirtualMemory()
	if err == nil {
		info.RAMGb = float64(vmStat.Total) / 1024 / 1024 / 1024
	}
	return info
}
