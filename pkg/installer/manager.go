package installer

import (
	"github.com/rigup/rigup/pkg/types"
)

// pkgManager describes one platform package manager: how to install a
// package and how to ask whether it is already installed. The query is
// the manager-level duplicate-install guard used when a tool's own
// presence check is platform-specific and may have missed it.
type pkgManager struct {
	binary      string
	sudo        bool
	installArgs func(pkg string) []string
	queryArgs   func(pkg string) []string
}

// managers maps each package-manager platform to its manager.
// Platforms absent here (linux-generic, unknown) have no automated
// package path and fall through to clone/script/manual dispatch.
var managers = map[types.Platform]pkgManager{
	types.PlatformMacOS: {
		binary:      "brew",
		installArgs: func(pkg string) []string { return []string{"install", pkg} },
		queryArgs:   func(pkg string) []string { return []string{"list", pkg} },
	},
	types.PlatformDebian: {
		binary:      "apt-get",
		sudo:        true,
		installArgs: func(pkg string) []string { return []string{"install", "-y", pkg} },
		queryArgs:   func(pkg string) []string { return []string{"-s", pkg} },
	},
	types.PlatformFedora: {
		binary:      "dnf",
		sudo:        true,
		installArgs: func(pkg string) []string { return []string{"install", "-y", pkg} },
		queryArgs:   func(pkg string) []string { return []string{"-q", pkg} },
	},
	types.PlatformArch: {
		binary:      "pacman",
		sudo:        true,
		installArgs: func(pkg string) []string { return []string{"-S", "--noconfirm", pkg} },
		queryArgs:   func(pkg string) []string { return []string{"-Qi", pkg} },
	},
}

// queryBinary returns the binary used for the installed-query, which
// differs from the install binary on dpkg/rpm based systems.
func (m pkgManager) queryBinary() string {
	switch m.binary {
	case "apt-get":
		return "dpkg"
	case "dnf":
		return "rpm"
	default:
		return m.binary
	}
}

// managerFor returns the package manager for a platform, if any.
func managerFor(p types.Platform) (pkgManager, bool) {
	m, ok := managers[p]
	return m, ok
}

// installed asks the manager whether pkg is already present.
func (m pkgManager) installed(runner types.Runner, pkg string) bool {
	_, err := runner.Run(m.queryBinary(), m.queryArgs(pkg)...)
	return err == nil
}

// install runs the manager's install command for pkg.
func (m pkgManager) install(runner types.Runner, pkg string) (string, error) {
	args := m.installArgs(pkg)
	if m.sudo {
		return runner.Run("sudo", append([]string{m.binary}, args...)...)
	}
	return runner.Run(m.binary, args...)
}
