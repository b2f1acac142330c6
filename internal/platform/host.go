package platform

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo describes the machine the logs were read on.
type HostInfo struct {
	Name          string   `json:"name"`
	OS            string   `json:"os"`
	Platform      string   `json:"platform,omitempty"`
	CPUModel      string   `json:"cpuModel,omitempty"`
	CPUCores      int      `json:"cpuCores"`
	MemoryTotalGB float64  `json:"memoryTotalGB"`
	GPUs          []string `json:"gpus"`
}

// CollectHostInfo gathers a best-effort snapshot; fields that cannot be read
// are left empty.
func CollectHostInfo() HostInfo {
	info := HostInfo{
		Name: NodeName(),
		OS:   runtime.GOOS,
		GPUs: []string{},
	}

	if h, err := host.Info(); err == nil {
		info.Platform = strings.TrimSpace(h.Platform + " " + h.PlatformVersion)
	}

	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	if n, err := cpu.Counts(true); err == nil {
		info.CPUCores = n
	}

	if v, err := mem.VirtualMemory(); err == nil {
		info.MemoryTotalGB = float64(v.Total) / (1024 * 1024 * 1024)
	}

	info.GPUs = listGPUs()
	return info
}

// listGPUs returns the names of NVIDIA GPUs reported by nvidia-smi.
func listGPUs() []string {
	if !isCommandAvailable("nvidia-smi") {
		return []string{}
	}
	output, err := exec.Command("nvidia-smi", "--query-gpu=name", "--format=csv,noheader").Output()
	if err != nil {
		return []string{}
	}
	return parseGPUNames(string(output))
}

func parseGPUNames(output string) []string {
	names := []string{}
	for _, line := range strings.Split(output, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}
