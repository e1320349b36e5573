package platform

import (
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// commLength is the kernel's limit on the process name go-ps reads on
// Linux; longer executable names show up truncated in the table.
const commLength = 15

// ProcessProbe answers whether a named executable is currently running.
// The announcement loop uses it to decide whether the stop screen is
// already on screen before launching another one.
type ProcessProbe interface {
	Running(executable string) (bool, error)
}

// PSProbe scans the system process table.
type PSProbe struct{}

// NewPSProbe creates a process-table probe.
func NewPSProbe() *PSProbe {
	return &PSProbe{}
}

// Running reports whether any process with the given executable name
// exists.
func (PSProbe) Running(executable string) (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	for _, process := range processList {
		if matchesExecutable(process.Executable(), executable) {
			return true, nil
		}
	}

	return false, nil
}

// matchesExecutable compares a process-table name against the wanted
// executable, tolerating the comm truncation of long names.
func matchesExecutable(comm, executable string) bool {
	name := filepath.Base(executable)

	if comm == name {
		return true
	}

	return len(name) > commLength && comm == name[:commLength]
}
