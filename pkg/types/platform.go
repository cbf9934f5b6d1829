package types

// Platform identifies the host OS family rigup is provisioning.
// It is detected once per run and read everywhere; the installer
// switches exhaustively on it, so adding a value here requires a
// matching strategy branch (or an explicit fall-through to the
// manual-step path).
type Platform string

const (
	PlatformMacOS        Platform = "macos"
	PlatformDebian       Platform = "debian"
	PlatformFedora       Platform = "fedora"
	PlatformArch         Platform = "arch"
	PlatformLinuxGeneric Platform = "linux-generic"
	PlatformUnknown      Platform = "unknown"
)

// String returns the platform name.
func (p Platform) String() string {
	return string(p)
}

// IsLinux reports whether the platform is any Linux family,
// including the generic fallback.
func (p Platform) IsLinux() bool {
	switch p {
	case PlatformDebian, PlatformFedora, PlatformArch, PlatformLinuxGeneric:
		return true
	}
	return false
}

// Valid reports whether p is one of the enumerated platform values.
func (p Platform) Valid() bool {
	switch p {
	case PlatformMacOS, PlatformDebian, PlatformFedora, PlatformArch,
		PlatformLinuxGeneric, PlatformUnknown:
		return true
	}
	return false
}
