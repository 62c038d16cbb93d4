// Package compileinfo reports the module, toolchain, and VCS state a binary
// was built from, so that output produced months ago can be traced back to
// the exact code that wrote it.
package compileinfo

import (
	"fmt"
	"os"
	"runtime/debug"
)

type CompileInfo struct {
	Package    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	commit := c.Commit
	if commit == "" {
		commit = "an unknown commit"
	}

	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	return fmt.Sprintf("This %s binary was built with %s at %v at time %v.%s", c.Package, c.GoVersion, commit, c.CommitTime, mod)
}

func Get() CompileInfo {
	out := CompileInfo{}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = buildInfo.GoVersion
	out.Package = buildInfo.Path
	for _, s := range buildInfo.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func PrintToStdErr() {
	fmt.Fprintf(os.Stderr, "%s\n", Get())
}
