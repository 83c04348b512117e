// Package policy validates candidate shell commands before execution.
//
// The model is untrusted to self-police, so validation runs outside of it:
// first a fixed blocklist of irreversible/destructive patterns, then a check
// for privilege elevation and system-wide state changes that demand explicit
// user confirmation. The blocklist is pattern-based, a last-resort net rather
// than a sandbox; it is deliberately kept static.
package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// destructivePatterns are substring matches against the lowercased command.
// Any hit blocks execution outright.
var destructivePatterns = []string{
	"rm -rf /",
	"rm -rf ~",
	"rm -rf $home",
	"rm -fr /",
	"rm -fr ~",
	"dd if=",
	"dd of=",
	"mkfs",
	"wipefs",
	"sgdisk",
	"fdisk",
	"parted",
	"sfdisk",
	":(){:|:&};:",
	":(){ :|:& };:",
	"systemctl poweroff",
	"systemctl reboot",
	"systemctl halt",
	"shutdown",
	"poweroff",
	"reboot",
	"init 0",
	"init 6",
	"halt",
	"chmod -r 777 /",
	"chmod 777 /",
	"cryptsetup",
	"pvcreate",
	"vgcreate",
	"lvcreate",
}

// blockDeviceRedirect catches raw writes into block devices.
var blockDeviceRedirect = regexp.MustCompile(`>\s*/dev/(sd|hd|nvme|vd|loop|mmcblk)`)

// criticalFiles must never be written to through a model-produced command.
var criticalFiles = []string{"/etc/passwd", "/etc/shadow", "/etc/sudoers", "/etc/fstab"}

// elevationPrefixes mark an explicit privilege-escalation invocation.
var elevationPrefixes = []string{"sudo ", "sudo\t", "pkexec ", "doas ", "kdesu ", "su -c", "su root"}

// systemCommands touch system-wide state even without an elevation prefix:
// package management, service control, mounts, account changes.
var systemCommands = []string{
	"pacman -s", "pacman -r", "pacman -sy", "pacman -u",
	"yay -s", "yay -r", "paru -s", "paru -r",
	"systemctl start", "systemctl stop", "systemctl restart",
	"systemctl enable", "systemctl disable", "systemctl mask",
	"mount ", "umount ",
	"useradd", "userdel", "usermod", "groupadd", "groupdel",
	"passwd", "visudo", "chsh", "chfn",
	"modprobe", "insmod", "rmmod",
}

// privilegedPaths are directories a redirection must not silently target.
var privilegedPaths = []string{"/boot", "/etc", "/usr", "/bin", "/sbin", "/lib", "/lib64", "/sys", "/root"}

var redirectOps = []string{" > ", " >> ", "&>", "| tee "}

// Check classifies a raw command string. It is a pure function of the
// command and the static pattern sets above, applied in order: Blocked,
// then RequiresConfirmation, then Safe.
func Check(command string) Verdict {
	lowered := strings.ToLower(command)
	compact := strings.Join(strings.Fields(lowered), " ")

	// 1. Irreversible or destructive patterns: reject outright.
	for _, pattern := range destructivePatterns {
		if strings.Contains(compact, pattern) {
			return blocked(fmt.Sprintf("destructive pattern %q is blocked", pattern))
		}
	}
	if blockDeviceRedirect.MatchString(command) {
		return blocked("writes to raw block devices are blocked")
	}
	for _, path := range criticalFiles {
		if strings.Contains(command, path) && containsAny(lowered, redirectOps) {
			return blocked(fmt.Sprintf("writes to %s are blocked", path))
		}
	}
	if isForkBomb(compact) {
		return blocked("fork-bomb idiom is blocked")
	}

	// 2. Privilege elevation or system-wide state: ask the user first.
	trimmed := strings.TrimSpace(lowered)
	for _, prefix := range elevationPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return confirm("the command requests privilege elevation")
		}
	}
	for _, sys := range systemCommands {
		if strings.Contains(compact, sys) {
			return confirm(fmt.Sprintf("the command changes system-wide state (%s)", strings.TrimSpace(sys)))
		}
	}
	for _, path := range privilegedPaths {
		for _, op := range redirectOps {
			if strings.Contains(lowered, op+path+"/") || strings.HasSuffix(lowered, op+path) ||
				strings.Contains(lowered, strings.TrimRight(op, " ")+path+"/") {
				return confirm(fmt.Sprintf("the command writes under %s", path))
			}
		}
	}

	// 3. Everything else runs without confirmation.
	return safe()
}

// isForkBomb catches spaced and renamed spellings of the bash fork bomb,
// which substring matching on the canonical form misses: a function defining
// itself, piping into itself in the background, then invoking itself.
var forkBombRe = regexp.MustCompile(`\S+\s*\(\s*\)\s*\{[^}]*\|[^}]*&[^}]*\}\s*;?\s*\S+`)

func isForkBomb(command string) bool {
	return forkBombRe.MatchString(command)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
