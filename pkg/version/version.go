// Package version provides build information for the uglifyify command.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time with -ldflags, for example:
// go build -ldflags "-X 'github.com/browserify/uglifyify/pkg/version.Version=1.2.3' -X 'github.com/browserify/uglifyify/pkg/version.Commit=abcdefg'"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Info contains build information plus the versions of the bundled minifier engines.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	Platform  string
	Engines   map[string]string // Module path to version for the minifier libraries.
}

var engineModules = []string{
	"github.com/evanw/esbuild",
	"github.com/tdewolff/minify/v2",
}

// Get returns the current build information.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Engines:   map[string]string{},
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			for _, mod := range engineModules {
				if dep.Path == mod {
					info.Engines[mod] = dep.Version
				}
			}
		}
	}
	return info
}

// String returns the information on one line, e.g.
// uglifyify version 1.2.3 (commit: abcdefg) built at 2024-04-27T15:04:05Z with go1.23.1 on linux/amd64
func (i Info) String() string {
	return fmt.Sprintf(
		"uglifyify version %s (commit: %s) built at %s with %s on %s",
		i.Version,
		i.GitCommit,
		i.BuildTime,
		i.GoVersion,
		i.Platform,
	)
}
