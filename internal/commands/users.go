package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamchat/tchat/internal/client"
	"github.com/teamchat/tchat/internal/panel"
)

var usersJSON bool

var usersCmd = &cobra.Command{
	Use:   "users <query>",
	Short: "Search people to chat with",
	Long: `Search people by name. Use the id from the results with 'tchat direct'.

Examples:
  tchat users ann
  tchat users "ann lee" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUsers,
}

func init() {
	usersCmd.Flags().BoolVar(&usersJSON, "json", false, "Output as JSON")
}

// UserResult is a search hit.
type UserResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Status     string `json:"status,omitempty"`
}

// UsersResult is the output of `tchat users`.
type UsersResult struct {
	Query string       `json:"query"`
	Users []UserResult `json:"users"`
	Count int          `json:"count"`
}

func runUsers(cmd *cobra.Command, args []string) error {
	query, err := requireArg("query", strings.Join(args, " "))
	if err != nil {
		return err
	}
	s, err := loadSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
	defer cancel()

	result, err := searchUsers(ctx, s, query)
	if err != nil {
		return err
	}

	fmt.Print(formatUsersOutput(result, usersJSON))
	return nil
}

func searchUsers(ctx context.Context, s *session, query string) (*UsersResult, error) {
	p, err := s.openPanel(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(p)

	p.EnterNewChat()
	if _, err := p.Search(ctx, query); err != nil {
		return nil, wrapRequestError("searching people", err)
	}

	snap := p.Snapshot()
	result := &UsersResult{Query: strings.TrimSpace(query), Users: make([]UserResult, 0, len(snap.Results))}
	for _, u := range snap.Results {
		result.Users = append(result.Users, toUserResult(u))
	}
	result.Count = len(result.Users)
	return result, nil
}

func toUserResult(u client.UserSummary) UserResult {
	r := UserResult{ID: u.ID, Name: panel.FullName(u), Status: u.Status}
	if u.Role != nil {
		r.Role = *u.Role
	}
	if u.Department != nil {
		r.Department = *u.Department
	}
	return r
}

func formatUsersOutput(result *UsersResult, asJSON bool) string {
	if asJSON {
		return marshalJSONOrFallback(result)
	}

	if len(result.Users) == 0 {
		return fmt.Sprintf("No people match %q.\n", result.Query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("PEOPLE (%d)\n", result.Count))
	for _, u := range result.Users {
		var details []string
		for _, d := range []string{u.Role, u.Department, u.Status} {
			if d != "" {
				details = append(details, d)
			}
		}
		line := fmt.Sprintf("  %s  (%s)", u.Name, u.ID)
		if len(details) > 0 {
			line += " — " + strings.Join(details, ", ")
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
