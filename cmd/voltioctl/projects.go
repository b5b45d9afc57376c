package main

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

func init() {
	projectsCmd := &cobra.Command{Use: "projects", Short: "Project operations"}

	// create
	var name, description, ptype, company, location, client string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" || name == "" {
				return fmt.Errorf("--user and --name required")
			}
			payload := map[string]interface{}{"name": name}
			if description != "" {
				payload["description"] = description
			}
			if ptype != "" {
				payload["type"] = ptype
			}
			if company != "" {
				payload["company"] = company
			}
			if location != "" {
				payload["location"] = location
			}
			if client != "" {
				payload["client"] = client
			}
			data, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().SetBody(payload).Post(fmt.Sprintf("/api/users/%s/projects", userFlag))
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Project name (required)")
	createCmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	createCmd.Flags().StringVarP(&ptype, "type", "t", "", "Project type (residential, commercial, industrial)")
	createCmd.Flags().StringVar(&company, "company", "", "Company")
	createCmd.Flags().StringVar(&location, "location", "", "Location")
	createCmd.Flags().StringVar(&client, "client", "", "Client")
	_ = createCmd.MarkFlagRequired("name")
	projectsCmd.AddCommand(createCmd)

	// list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			data, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().Get(fmt.Sprintf("/api/users/%s/projects", userFlag))
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	projectsCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get PROJECT_ID",
		Short: "Get a project by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().Get("/api/projects/" + args[0])
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	projectsCmd.AddCommand(getCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete PROJECT_ID",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().Delete("/api/projects/" + args[0])
			})
			return err
		},
	}
	projectsCmd.AddCommand(deleteCmd)

	// duplicate
	var dupName string
	duplicateCmd := &cobra.Command{
		Use:   "duplicate PROJECT_ID",
		Short: "Duplicate a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"ownerId": userFlag}
			if dupName != "" {
				payload["name"] = dupName
			}
			data, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().SetBody(payload).Post("/api/projects/" + args[0] + "/duplicate")
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	duplicateCmd.Flags().StringVarP(&dupName, "name", "n", "", "Name for the copy")
	projectsCmd.AddCommand(duplicateCmd)

	rootCmd.AddCommand(projectsCmd)

	// collaborators
	collabCmd := &cobra.Command{Use: "collaborators", Short: "Collaborator operations"}

	var email string
	addCollab := &cobra.Command{
		Use:   "add PROJECT_ID",
		Short: "Add a collaborator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			data, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().SetBody(map[string]string{"email": email}).Post("/api/projects/" + args[0] + "/collaborators")
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	addCollab.Flags().StringVarP(&email, "email", "e", "", "Collaborator email (required)")
	_ = addCollab.MarkFlagRequired("email")
	collabCmd.AddCommand(addCollab)

	var rmEmail string
	removeCollab := &cobra.Command{
		Use:   "remove PROJECT_ID",
		Short: "Remove a collaborator (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rmEmail == "" {
				return fmt.Errorf("--email required")
			}
			data, err := do(func(c *resty.Client) (*resty.Response, error) {
				return c.R().Delete("/api/projects/" + args[0] + "/collaborators/" + rmEmail)
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	removeCollab.Flags().StringVarP(&rmEmail, "email", "e", "", "Collaborator email (required)")
	_ = removeCollab.MarkFlagRequired("email")
	collabCmd.AddCommand(removeCollab)

	rootCmd.AddCommand(collabCmd)
}
