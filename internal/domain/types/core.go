package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SessionAddress identifies one device of a remote user.
type SessionAddress struct {
	Name     string `json:"name" yaml:"name"`
	DeviceID uint32 `json:"device_id" yaml:"device"`
}

// String returns the address as "name.device".
func (a SessionAddress) String() string {
	return a.Name + "." + strconv.FormatUint(uint64(a.DeviceID), 10)
}

// ParseSessionAddress parses "name" or "name.device". A missing device id
// means device 0.
func ParseSessionAddress(s string) (SessionAddress, error) {
	if s == "" {
		return SessionAddress{}, fmt.Errorf("empty session address")
	}
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return SessionAddress{Name: s}, nil
	}
	device, err := strconv.ParseUint(s[i+1:], 10, 32)
	if err != nil || i == 0 {
		return SessionAddress{}, fmt.Errorf("invalid session address %q", s)
	}
	return SessionAddress{Name: s[:i], DeviceID: uint32(device)}, nil
}

// SenderKeyName identifies one sender's chain inside one group.
type SenderKeyName struct {
	GroupID string         `json:"group_id"`
	Sender  SessionAddress `json:"sender"`
}

// String returns the name as "group::name.device".
func (n SenderKeyName) String() string {
	return n.GroupID + "::" + n.Sender.String()
}
