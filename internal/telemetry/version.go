package telemetry

import (
	"fmt"

	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// Version describes the router's pfSense and FreeBSD releases. Read once.
type Version struct {
	Version   string // /etc/version, e.g. 2.7.2-RELEASE
	Patch     string // /etc/version.patch, "0" when unpatched
	Arch      string // uname -m
	BuildTime string // /etc/version.buildtime
	OSBase    string // uname -sr
}

// ReadVersion reads the first line of each version source.
func ReadVersion(e sshutil.Executor) (Version, error) {
	var v Version
	sources := []struct {
		dst *string
		cmd string
	}{
		{&v.Version, catCmd("/etc/version")},
		{&v.Patch, catCmd("/etc/version.patch")},
		{&v.Arch, cmdUnameMachine},
		{&v.BuildTime, catCmd("/etc/version.buildtime")},
		{&v.OSBase, cmdUnameRelease},
	}
	for _, s := range sources {
		line, err := sshutil.Line(e, s.cmd)
		if err != nil {
			return Version{}, err
		}
		*s.dst = line
	}
	return v, nil
}

// String formats the release as "2.7.2-RELEASE-p1 (amd64)".
func (v Version) String() string {
	if v.Patch == "" || v.Patch == "0" {
		return fmt.Sprintf("%s (%s)", v.Version, v.Arch)
	}
	return fmt.Sprintf("%s-p%s (%s)", v.Version, v.Patch, v.Arch)
}
