package catalog

import (
	"fmt"
	"strings"

	"github.com/rigup/rigup/pkg/config"
	"github.com/rigup/rigup/pkg/paths"
	"github.com/rigup/rigup/pkg/types"
)

// Markers guarding the append edits. Changing one orphans the block it
// guards in existing rc files, so they are frozen here.
const (
	MarkerAliases   = "# rigup: aliases"
	MarkerEditorEnv = "# rigup: editor"
	MarkerTPMRun    = "run '~/.tmux/plugins/tpm/tpm'"
)

// Catalog is the full declared end state for one run.
type Catalog struct {
	Tools []types.ToolSpec

	// Appends are marker-guarded block insertions.
	Appends []types.ConfigEdit

	// Lines are single-line idempotent substitutions. Multi-line
	// plugin lists are deliberately unsupported; when the anchored
	// pattern finds nothing the run queues a manual step instead of
	// guessing at a splice.
	Lines []types.LineEdit

	// Links are symlink/copy installations of directory-style configs.
	Links []types.LinkEdit
}

// New builds the catalog for the given paths and settings, dropping
// tools the settings disable.
func New(p paths.Paths, settings *config.Settings) *Catalog {
	c := &Catalog{
		Tools:   tools(p),
		Appends: appends(p),
		Lines:   lines(p, settings),
		Links:   links(p),
	}

	if len(settings.Tools.Disabled) > 0 {
		kept := c.Tools[:0]
		for _, t := range c.Tools {
			if !settings.Tools.IsDisabled(t.Name) {
				kept = append(kept, t)
			}
		}
		c.Tools = kept
	}

	return c
}

func tools(p paths.Paths) []types.ToolSpec {
	allPlatforms := func(pkg string) map[types.Platform]string {
		return map[types.Platform]string{
			types.PlatformMacOS:  pkg,
			types.PlatformDebian: pkg,
			types.PlatformFedora: pkg,
			types.PlatformArch:   pkg,
		}
	}

	return []types.ToolSpec{
		{
			Name:     "git",
			Summary:  "distributed version control, required for every clone step",
			Check:    types.BinaryCheck("git"),
			Packages: allPlatforms("git"),
		},
		{
			Name:     "zsh",
			Summary:  "the shell everything else hangs off",
			Check:    types.BinaryCheck("zsh"),
			Packages: allPlatforms("zsh"),
		},
		{
			Name:     "tmux",
			Summary:  "terminal multiplexer",
			Check:    types.BinaryCheck("tmux"),
			Packages: allPlatforms("tmux"),
		},
		{
			Name:    "neovim",
			Summary: "editor",
			Check:   types.BinaryCheck("nvim"),
			Packages: map[types.Platform]string{
				types.PlatformMacOS:  "neovim",
				types.PlatformDebian: "neovim",
				types.PlatformFedora: "neovim",
				types.PlatformArch:   "neovim",
			},
		},
		{
			Name:     "ripgrep",
			Summary:  "fast grep used by the editor's fuzzy finder",
			Check:    types.BinaryCheck("rg"),
			Packages: allPlatforms("ripgrep"),
		},
		{
			Name:    "fd",
			Summary: "file finder used by the editor's fuzzy finder",
			Check:   types.BinaryCheck("fd"),
			Packages: map[types.Platform]string{
				types.PlatformMacOS:  "fd",
				types.PlatformDebian: "fd-find",
				types.PlatformFedora: "fd-find",
				types.PlatformArch:   "fd",
			},
		},
		{
			Name:     "fzf",
			Summary:  "fuzzy finder",
			Check:    types.BinaryCheck("fzf"),
			Packages: allPlatforms("fzf"),
		},
		{
			Name:    "lazygit",
			Summary: "terminal git UI",
			Check:   types.BinaryCheck("lazygit"),
			Packages: map[types.Platform]string{
				types.PlatformMacOS: "lazygit",
				types.PlatformArch:  "lazygit",
			},
			Manual: "install lazygit from https://github.com/jesseduffield/lazygit/releases",
		},
		{
			Name:    "oh-my-zsh",
			Summary: "zsh configuration framework",
			Check:   types.DirCheck(p.OhMyZshDir()),
			Script: &types.RemoteScript{
				URL:      "https://raw.githubusercontent.com/ohmyzsh/ohmyzsh/master/tools/install.sh",
				Shell:    `sh -s -- --unattended`,
				GuardDir: p.OhMyZshDir(),
			},
		},
		{
			Name:    "zsh-autosuggestions",
			Summary: "command suggestions plugin",
			Check:   types.DirCheck(omzPlugin(p, "zsh-autosuggestions")),
			Clone: &types.GitClone{
				RepoURL: "https://github.com/zsh-users/zsh-autosuggestions",
				Dir:     omzPlugin(p, "zsh-autosuggestions"),
				Depth:   1,
			},
		},
		{
			Name:    "zsh-syntax-highlighting",
			Summary: "command highlighting plugin",
			Check:   types.DirCheck(omzPlugin(p, "zsh-syntax-highlighting")),
			Clone: &types.GitClone{
				RepoURL: "https://github.com/zsh-users/zsh-syntax-highlighting",
				Dir:     omzPlugin(p, "zsh-syntax-highlighting"),
				Depth:   1,
			},
		},
		{
			Name:    "tpm",
			Summary: "tmux plugin manager",
			Check:   types.DirCheck(p.TmuxPluginsDir()),
			Clone: &types.GitClone{
				RepoURL: "https://github.com/tmux-plugins/tpm",
				Dir:     p.TmuxPluginsDir(),
				Depth:   1,
			},
		},
		{
			Name:    "nvm",
			Summary: "node version manager",
			Check:   types.DirCheck("~/.nvm"),
			Script: &types.RemoteScript{
				URL:      "https://raw.githubusercontent.com/nvm-sh/nvm/v0.40.1/install.sh",
				GuardDir: "~/.nvm",
			},
		},
	}
}

func appends(p paths.Paths) []types.ConfigEdit {
	return []types.ConfigEdit{
		{
			Description: "shell aliases",
			File:        p.ShellRC(),
			Marker:      MarkerAliases,
			Block: MarkerAliases + "\n" +
				"alias vim='nvim'\n" +
				"alias ll='ls -lah'\n" +
				"alias gs='git status'",
		},
		{
			Description: "editor environment",
			File:        p.ShellRC(),
			Marker:      MarkerEditorEnv,
			Block: MarkerEditorEnv + "\n" +
				"export EDITOR=nvim\n" +
				"export VISUAL=nvim",
		},
		{
			Description: "tmux plugin manager bootstrap",
			File:        p.TmuxConf(),
			Marker:      MarkerTPMRun,
			Block:       MarkerTPMRun,
		},
	}
}

func lines(p paths.Paths, settings *config.Settings) []types.LineEdit {
	return []types.LineEdit{
		{
			Description: "zsh theme",
			File:        p.ShellRC(),
			Pattern:     `^ZSH_THEME=".*"$`,
			Replacement: fmt.Sprintf(`ZSH_THEME="%s"`, settings.Core.Theme),
		},
		{
			Description: "zsh plugin list",
			File:        p.ShellRC(),
			Pattern:     `^plugins=\(.*\)$`,
			Replacement: fmt.Sprintf("plugins=(%s)", strings.Join(settings.Core.ZshPlugins, " ")),
		},
	}
}

func links(p paths.Paths) []types.LinkEdit {
	return []types.LinkEdit{
		{
			Description: "editor config",
			Source:      p.SourceEditorDir(),
			Target:      p.EditorConfigDir(),
			Mode:        types.LinkModeSymlink,
		},
		{
			// Copied, not linked: the clipboard binding differs per
			// host and local edits must not land in the source tree.
			Description: "tmux config",
			Source:      p.SourceTmuxConf(),
			Target:      p.TmuxConf(),
			Mode:        types.LinkModeCopy,
		},
	}
}

func omzPlugin(p paths.Paths, name string) string {
	return p.OhMyZshDir() + "/custom/plugins/" + name
}
