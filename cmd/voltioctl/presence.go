package main

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

func init() {
	presenceCmd := &cobra.Command{Use: "presence", Short: "Presence operations"}

	listCmd := &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List active users on a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().Get("/api/projects/" + args[0] + "/presence")
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	presenceCmd.AddCommand(listCmd)

	joinCmd := &cobra.Command{
		Use:   "join PROJECT_ID",
		Short: "Mark the user active on a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			_, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().Put("/api/projects/" + args[0] + "/presence/" + userFlag)
			})
			return err
		},
	}
	presenceCmd.AddCommand(joinCmd)

	leaveCmd := &cobra.Command{
		Use:   "leave PROJECT_ID",
		Short: "Mark the user inactive on a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			_, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().Delete("/api/projects/" + args[0] + "/presence/" + userFlag)
			})
			return err
		},
	}
	presenceCmd.AddCommand(leaveCmd)

	rootCmd.AddCommand(presenceCmd)
}
