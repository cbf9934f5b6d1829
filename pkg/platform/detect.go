package platform

import (
	"runtime"
	"strings"

	"github.com/rigup/rigup/pkg/logging"
	"github.com/rigup/rigup/pkg/types"
)

// OSReleasePath is the standard Linux distribution identification file.
const OSReleasePath = "/etc/os-release"

// Detect resolves the host platform once per run. Unrecognized
// combinations yield PlatformUnknown rather than an error.
func Detect(fsys types.FS) types.Platform {
	return DetectFrom(fsys, runtime.GOOS)
}

// DetectFrom resolves the platform for an explicit GOOS value.
// Split out from Detect so tests can exercise every branch.
func DetectFrom(fsys types.FS, goos string) types.Platform {
	logger := logging.GetLogger("platform")

	switch goos {
	case "darwin":
		return types.PlatformMacOS
	case "linux":
		data, err := fsys.ReadFile(OSReleasePath)
		if err != nil {
			logger.Debug().Err(err).Str("path", OSReleasePath).
				Msg("no os-release file, falling back to generic linux")
			return types.PlatformLinuxGeneric
		}
		p := classifyOSRelease(string(data))
		logger.Debug().Str("platform", p.String()).Msg("classified linux distribution")
		return p
	default:
		logger.Debug().Str("goos", goos).Msg("unrecognized operating system")
		return types.PlatformUnknown
	}
}

// classifyOSRelease maps os-release ID/ID_LIKE values onto a platform
// family. Derivatives resolve through ID_LIKE (e.g. ID=pop has
// ID_LIKE="ubuntu debian").
func classifyOSRelease(content string) types.Platform {
	id := osReleaseField(content, "ID")
	idLike := osReleaseField(content, "ID_LIKE")
	signal := strings.ToLower(id + " " + idLike)

	switch {
	case containsAny(signal, "debian", "ubuntu", "mint", "kali", "pop"):
		return types.PlatformDebian
	case containsAny(signal, "fedora", "rhel", "centos", "rocky", "alma"):
		return types.PlatformFedora
	case containsAny(signal, "arch", "manjaro", "endeavouros"):
		return types.PlatformArch
	default:
		return types.PlatformLinuxGeneric
	}
}

// osReleaseField extracts a KEY=value field, stripping surrounding quotes.
func osReleaseField(content, key string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, key+"=") {
			return strings.Trim(line[len(key)+1:], `"`)
		}
	}
	return ""
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
