package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List advisors available for assignment",
	Long: `List user accounts. By default only active advisors are shown,
since those are the accounts work items can be assigned to.`,
	RunE: runUsers,
}

var usersAll bool

func init() {
	usersCmd.Flags().BoolVarP(&usersAll, "all", "a", false, "Show every account, any role")
}

func runUsers(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, err := client.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch users: %w", err)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("─", 64))
	shown := 0
	for _, u := range users {
		if !usersAll && !u.Assignable() {
			continue
		}
		state := "active"
		if !u.Active {
			state = "inactive"
		}
		fmt.Printf("  %-36s  %-20s  %-9s  %s\n", u.ID, u.Name, u.Role, state)
		shown++
	}
	fmt.Println(strings.Repeat("─", 64))
	fmt.Printf("%d accounts\n\n", shown)
	return nil
}
