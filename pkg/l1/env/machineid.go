// Package env provides shared environment of controllers and tools.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID keys the protected machine ID so the raw ID is never published.
const AppID = "perictl"

// MachineIDLen is the length of the ID used as controller ID.
const MachineIDLen = 12

// MachineID retrieves the ID identifying the machine.
// It falls back to the hostname when the machine ID is unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		if len(id) > MachineIDLen {
			id = id[:MachineIDLen]
		}
		return id
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}
