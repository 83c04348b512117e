package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck_Blocked(t *testing.T) {
	tests := []struct {
		name    string
		command string
	}{
		{"recursive root deletion", "rm -rf /"},
		{"recursive home deletion", "rm -rf ~"},
		{"recursive root deletion with args", "rm -rf / --no-preserve-root"},
		{"uppercase is normalized", "RM -RF /"},
		{"extra spaces are normalized", "rm   -rf   /"},
		{"raw disk read", "dd if=/dev/sda of=backup.img"},
		{"raw disk write", "dd of=/dev/sda"},
		{"filesystem creation", "mkfs.ext4 /dev/sda1"},
		{"disk wipe", "wipefs -a /dev/sda"},
		{"partitioning", "fdisk /dev/sda"},
		{"fork bomb canonical", ":(){:|:&};:"},
		{"fork bomb spaced", ":() { : | : & } ; :"},
		{"fork bomb renamed", "bomb(){ bomb|bomb& };bomb"},
		{"poweroff", "systemctl poweroff"},
		{"shutdown", "shutdown -h now"},
		{"reboot", "reboot"},
		{"block device redirect", "echo x > /dev/sda"},
		{"nvme redirect", "cat image.iso > /dev/nvme0n1"},
		{"passwd file write", "echo 'evil' >> /etc/passwd"},
		{"shadow file write", "cat mine > /etc/shadow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Check(tt.command)
			assert.Equal(t, VerdictBlocked, v.Kind, "command: %s", tt.command)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestCheck_RequiresConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		command string
	}{
		{"sudo prefix", "sudo pacman -Syu"},
		{"pkexec prefix", "pkexec cp config /etc/app.conf"},
		{"doas prefix", "doas ls /root"},
		{"package install", "pacman -S htop"},
		{"package removal", "pacman -R nano"},
		{"aur helper", "yay -S google-chrome"},
		{"service restart", "systemctl restart NetworkManager"},
		{"service stop", "systemctl stop bluetooth"},
		{"service enable", "systemctl enable sshd"},
		{"mount", "mount /dev/sdb1 /mnt"},
		{"user creation", "useradd -m guest"},
		{"privileged path write", "echo 'opt' > /etc/environment.d/archan.conf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Check(tt.command)
			assert.Equal(t, VerdictRequiresConfirmation, v.Kind, "command: %s", tt.command)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestCheck_Safe(t *testing.T) {
	tests := []struct {
		name    string
		command string
	}{
		{"process listing", "ps aux --sort=-%cpu"},
		{"disk usage", "df -h"},
		{"directory listing", "ls -la ~/Documents"},
		{"local file removal", "rm notes.txt"},
		{"recursive local removal", "rm -rf ./build"},
		{"memory usage", "free -m"},
		{"kernel version", "uname -a"},
		{"package query", "pacman -Q | wc -l"},
		{"service status", "systemctl status sshd"},
		{"journal read", "journalctl -u sshd --since today"},
		{"reading etc", "cat /etc/pacman.conf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Check(tt.command)
			assert.Equal(t, VerdictSafe, v.Kind, "command: %s", tt.command)
			assert.Empty(t, v.Reason)
		})
	}
}

func TestCheck_BlockedWinsOverConfirmation(t *testing.T) {
	// A destructive command stays blocked even behind sudo
	v := Check("sudo rm -rf /")
	assert.Equal(t, VerdictBlocked, v.Kind)

	v = Check("sudo dd of=/dev/sda")
	assert.Equal(t, VerdictBlocked, v.Kind)
}

func TestCheck_IsPure(t *testing.T) {
	first := Check("sudo pacman -Syu")
	second := Check("sudo pacman -Syu")
	assert.Equal(t, first, second)
}
