package validation

import (
	"strings"
	"testing"
)

func TestValidateSysctlParam(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		wantErr bool
	}{
		// Valid parameters
		{"simple", "vm.swappiness", false},
		{"underscore", "vm.vfs_cache_pressure", false},
		{"interface with slash", "net.ipv4.conf.eth0/1.forwarding", false},
		{"hyphen", "net.ipv4.conf.br-lan.rp_filter", false},

		// Invalid parameters
		{"empty", "", true},
		{"space", "vm swappiness", true},
		{"flag", "-a", true},
		{"assignment", "vm.swappiness=10", true},
		{"newline", "vm.swappiness\nkernel.panic", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSysctlParam(tt.param)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSysctlParam(%q) error = %v, wantErr %v", tt.param, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUnitName(t *testing.T) {
	tests := []struct {
		name    string
		unit    string
		wantErr bool
	}{
		// Valid units
		{"service", "bluetooth.service", false},
		{"no suffix", "cups", false},
		{"template", "getty@tty1.service", false},
		{"escaped", `dev-disk-by\x2duuid.swap`, false},

		// Invalid units
		{"empty", "", true},
		{"flag", "--now", true},
		{"space", "two words", true},
		{"path", "../etc", true},
		{"too long", strings.Repeat("a", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUnitName(tt.unit)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUnitName(%q) error = %v, wantErr %v", tt.unit, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeUnitName(t *testing.T) {
	tests := []struct {
		name    string
		unit    string
		want    string
		wantErr bool
	}{
		{"passthrough", "cups.service", "cups.service", false},
		{"trimmed", "  cups.service\n", "cups.service", false},
		{"blank", "   ", "", true},
		{"invalid rejected", "cups;reboot", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeUnitName(tt.unit)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeUnitName(%q) error = %v, wantErr %v", tt.unit, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizeUnitName(%q) = %q, want %q", tt.unit, got, tt.want)
			}
		})
	}
}

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		wantErr bool
	}{
		{"zram", "zram-config", false},
		{"plus", "libstdc++6", false},
		{"single char", "a", true},
		{"uppercase", "Zram", true},
		{"flag", "-y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.pkg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.pkg, err, tt.wantErr)
			}
		})
	}
}
