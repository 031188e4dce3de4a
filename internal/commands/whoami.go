package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiJSON bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current user",
	Long: `Show the user tchat acts as and where that identity came from
(config, TCHAT_USER_ID or the token's subject).`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Output as JSON")
}

// WhoamiResult is the output of `tchat whoami`.
type WhoamiResult struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	Source    string `json:"source"`
	ServerURL string `json:"server_url"`
	HasToken  bool   `json:"has_token"`
}

func runWhoami(cmd *cobra.Command, args []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	fmt.Print(formatWhoamiOutput(whoami(s), whoamiJSON))
	return nil
}

func whoami(s *session) *WhoamiResult {
	return &WhoamiResult{
		UserID:    s.me.UserID,
		Name:      s.me.Name,
		Source:    s.me.Source,
		ServerURL: s.client.BaseURL(),
		HasToken:  s.cfg.Token != "",
	}
}

func formatWhoamiOutput(result *WhoamiResult, asJSON bool) string {
	if asJSON {
		return marshalJSONOrFallback(result)
	}

	name := result.Name
	if name == "" {
		name = "(no display name)"
	}
	auth := "no token"
	if result.HasToken {
		auth = "bearer token"
	}
	return fmt.Sprintf("User:   %s (%s)\nSource: %s\nServer: %s (%s)\n",
		name, result.UserID, result.Source, result.ServerURL, auth)
}
