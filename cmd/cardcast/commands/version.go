package commands

import (
	"io"

	"github.com/fivetwenty-io/cardcast/pkg/cardcast"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the CardCast CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version string `json:"version" yaml:"version"`
				Commit  string `json:"commit"  yaml:"commit"`
				Built   string `json:"built"   yaml:"built"`
				Client  string `json:"client"  yaml:"client"`
			}

			info := VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
				Client:  cardcast.Name,
			}

			return render(cmd, info, func(w io.Writer) error {
				return renderProperties(w, [][2]string{
					{"Version", info.Version},
					{"Commit", info.Commit},
					{"Built", info.Built},
					{"Client", info.Client},
				})
			})
		},
	}
}
