package cmd

import (
	"github.com/spf13/cobra"

	"interview-copilot/internal/overlay"
)

var (
	overlayServer   string
	overlayOrigin   string
	overlayRoom     string
	overlayModel    string
	overlayProvider string
)

var overlayCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Attach a terminal display to a live interview room",
	Long: `overlay connects to a running server as one more viewer of a room:
it renders the live transcript, each question, the streamed answer, and
a cache badge. Lines typed on stdin are submitted as manual questions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := overlay.New(overlay.NewDisplay(), overlayModel, overlayProvider)
		return o.Run(overlayServer, overlayOrigin, overlayRoom)
	},
}

func init() {
	overlayCmd.Flags().StringVar(&overlayServer, "server", "ws://localhost:8000", "Server websocket URL")
	overlayCmd.Flags().StringVar(&overlayOrigin, "origin", "http://localhost/", "Websocket origin header")
	overlayCmd.Flags().StringVar(&overlayRoom, "room", "default", "Interview room to join")
	overlayCmd.Flags().StringVar(&overlayModel, "model", "", "Model for manually typed questions")
	overlayCmd.Flags().StringVar(&overlayProvider, "provider", "", "Provider for manually typed questions")
	rootCmd.AddCommand(overlayCmd)
}
