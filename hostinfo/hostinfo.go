// Package hostinfo reports the CPU the service runs on.
package hostinfo

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Info describes the host CPU.
type Info struct {
	Brand         string   `json:"brand"`
	Vendor        string   `json:"vendor"`
	Arch          string   `json:"arch"`
	PhysicalCores int      `json:"physical_cores"`
	LogicalCores  int      `json:"logical_cores"`
	AVX2          bool     `json:"avx2"`
	AVX512        bool     `json:"avx512"`
	Features      []string `json:"features"`
}

// Get reads the CPU information detected at startup.
func Get() Info {
	return Info{
		Brand:         cpuid.CPU.BrandName,
		Vendor:        cpuid.CPU.VendorString,
		Arch:          runtime.GOARCH,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:        cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
		Features:      cpuid.CPU.FeatureSet(),
	}
}
