package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemashift/internal/formatter"
)

// version is stamped by release builds with -ldflags "-X main.version=..."
var version string

var versionFormat string

type buildInfo struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// currentBuild describes the running binary, falling back to the module
// version and VCS stamp embedded by the go tool
func currentBuild() buildInfo {
	b := buildInfo{
		Version:   version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		if b.Version == "" {
			b.Version = "devel"
		}
		return b
	}
	if b.Version == "" {
		b.Version = info.Main.Version
	}
	if b.Version == "" || b.Version == "(devel)" {
		b.Version = "devel"
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Revision = s.Value
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

func (b buildInfo) String() string {
	s := "schemashift " + b.Version
	if b.Revision != "" {
		rev := b.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if b.Modified {
			rev += "-dirty"
		}
		s += " (" + rev + ")"
	}
	return s + " " + b.GoVersion + " " + b.Platform
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := currentBuild()
		switch versionFormat {
		case "text":
			_, err := fmt.Fprintln(cmd.OutOrStdout(), b)
			return err
		case "json":
			return formatter.NewJSONFormatter(cmd.OutOrStdout()).Format(b)
		default:
			return ConfigError(fmt.Sprintf("invalid format: %s (must be 'text' or 'json')", versionFormat), nil)
		}
	},
}

func init() {
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "output format: text or json")
}
