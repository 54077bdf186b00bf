package defaults

import (
	"bytes"
	_ "embed"
	"fmt"

	"rcconf-manager/core/rcconf"
)

// FileName is the managed file name of the defaults.
const FileName = "rc.conf"

//go:embed rc.conf
var raw []byte

// DocumentedKeys are the variables the shipped rc.conf must assign exactly once.
var DocumentedKeys = []string{
	"hostname",
	"openssh_enable",
	"sendmail_enable",
	"background_fsck",
	"fsck_y_enable",
	"synchronous_dhclient",
	"ntpd_enable",
	"ntpd_sync_on_start",
	"vmware_guest_vmblock_enable",
	"vmware_guest_vmhgfs_enable",
	"vmware_guest_vmmemctl_enable",
	"devfs_system_ruleset",
	"clear_tmp_X",
	"geli_autodetach",
	"dumpdev",
	"dumpdir",
	"ix_textdump_enable",
	"savecore_enable",
	"early_kld_list",
	"kld_list",
	"dbus_enable",
	"mdnsd_enable",
	"performance_cpu_freq",
	"local_startup",
	"early_late_divider",
	"root_rw_mount",
	"syslogd_enable",
	"syslog_ng_enable",
	"nginx_enable",
	"nginx_login_class",
	"devd_flags",
	"cleanvar_enable",
	"openssh_skipportscheck",
	"inadyn_flags",
}

// Raw returns a copy of the embedded file.
func Raw() []byte {
	return bytes.Clone(raw)
}

// Load parses the embedded file.
func Load() (*rcconf.Document, error) {
	doc, err := rcconf.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("embedded %s: %w", FileName, err)
	}
	return doc, nil
}

// MustLoad is Load for callers that cannot continue without the defaults.
func MustLoad() *rcconf.Document {
	doc, err := Load()
	if err != nil {
		panic(err)
	}
	return doc
}
