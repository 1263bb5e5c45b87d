package kfetch

import "strings"

// Info is the structured form of a report. Fields the mask left out are
// empty.
type Info struct {
	Hostname string `json:"hostname"`
	Kernel   string `json:"kernel,omitempty"`
	CPU      string `json:"cpu,omitempty"`
	CPUs     string `json:"cpus,omitempty"`
	Mem      string `json:"mem,omitempty"`
	Procs    string `json:"procs,omitempty"`
	Uptime   string `json:"uptime,omitempty"`
}

// Parse extracts the labelled fields from a report. The first line carries
// the hostname; every other field sits to the right of the logo as
// "<Label>: <value>".
func Parse(report string) Info {
	var info Info
	lines := strings.Split(report, "\n")
	if len(lines) > 0 {
		info.Hostname = strings.TrimSpace(lines[0])
	}
	for _, line := range lines[1:] {
		for _, f := range []struct {
			label string
			dst   *string
		}{
			{"  Kernel: ", &info.Kernel},
			{"  CPU: ", &info.CPU},
			{"  CPUs: ", &info.CPUs},
			{"  Mem: ", &info.Mem},
			{"  Procs: ", &info.Procs},
			{"  Uptime: ", &info.Uptime},
		} {
			if i := strings.Index(line, f.label); i >= 0 {
				*f.dst = strings.TrimSpace(line[i+len(f.label):])
				break
			}
		}
	}
	return info
}
