package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/lantern/internal/version"
)

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println(version.String())
			if !check {
				return nil
			}
			release, err := version.NewClient("").LatestRelease(cmd.Context())
			if err != nil {
				return err
			}
			if version.IsNewer(version.Version, release.TagName) {
				cmd.Printf("A newer release is available: %s (published %s)\n",
					release.TagName, release.PublishedAt.Format("2006-01-02"))
			} else {
				cmd.Println("You are on the latest release.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
