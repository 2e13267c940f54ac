package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// VaultStatus contains git integration status for a vault and its key
// files
type VaultStatus struct {
	IsRepo            bool
	VaultTracked      bool
	TrackedKeyFiles   []string // Key files tracked by git (bad)
	UntrackedKeyFiles []string // Key files not tracked by git (good)
	IgnoredKeyFiles   []string // Key files in .gitignore (good)
	UnignoredKeyFiles []string // Key files not in .gitignore (warning)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckVault checks git integration status for a vault file and its
// key files
func CheckVault(workDir, vaultFile string, keyFiles []string) (*VaultStatus, error) {
	status := &VaultStatus{}

	if !IsGitRepo(workDir) {
		return status, nil
	}
	status.IsRepo = true

	// The vault is encrypted, so versioning it is safe and wanted
	status.VaultTracked = IsTracked(workDir, vaultFile)

	// Key files must never end up in the repository
	for _, file := range keyFiles {
		if IsTracked(workDir, file) {
			status.TrackedKeyFiles = append(status.TrackedKeyFiles, file)
		} else {
			status.UntrackedKeyFiles = append(status.UntrackedKeyFiles, file)
		}

		if IsIgnored(workDir, file) {
			status.IgnoredKeyFiles = append(status.IgnoredKeyFiles, file)
		} else {
			status.UnignoredKeyFiles = append(status.UnignoredKeyFiles, file)
		}
	}

	return status, nil
}

// FormatVaultStatus formats git integration status for display
func FormatVaultStatus(status *VaultStatus, vaultFile string) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	if status.VaultTracked {
		result.WriteString(fmt.Sprintf("   ok: %s is tracked by git\n", vaultFile))
	} else {
		result.WriteString(fmt.Sprintf("   hint: %s not tracked (run: git add %s to version it)\n", vaultFile, vaultFile))
	}

	if len(status.TrackedKeyFiles) > 0 {
		result.WriteString(fmt.Sprintf("   error: %d key file(s) tracked by git:\n", len(status.TrackedKeyFiles)))
		for _, file := range status.TrackedKeyFiles {
			result.WriteString(fmt.Sprintf("      - %s (run: git rm --cached %s)\n", file, file))
		}
	} else if len(status.UntrackedKeyFiles) > 0 {
		result.WriteString("   ok: no key files tracked by git\n")
	}

	if len(status.UnignoredKeyFiles) > 0 {
		trackedSet := make(map[string]bool, len(status.TrackedKeyFiles))
		for _, f := range status.TrackedKeyFiles {
			trackedSet[f] = true
		}
		for _, file := range status.UnignoredKeyFiles {
			// Already flagged as tracked above
			if trackedSet[file] {
				continue
			}
			result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore (add to .gitignore)\n", file))
		}
	} else if len(status.IgnoredKeyFiles) > 0 {
		result.WriteString(fmt.Sprintf("   ok: %d key file(s) in .gitignore\n", len(status.IgnoredKeyFiles)))
	}

	return result.String()
}
