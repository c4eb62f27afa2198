package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

type createOperatorOptions struct {
	name         string
	username     string
	password     string
	role         string
	attractionID int
	ensureAdmin  bool
}

// NewCreateOperatorCommand creates the create-operator command.
func NewCreateOperatorCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &createOperatorOptions{}

	cmd := &cobra.Command{
		Use:   "create-operator",
		Short: "Create an operator account",
		Long: `Create an operator account. A password is generated and printed when
--password is omitted.

With --ensure-admin the default "admin" operator is created only if the
database has no operator yet; the other flags are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			return runCreateOperator(cmd.Context(), rootOpts, req, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.username, "username", "", "login name")
	cmd.Flags().StringVar(&opts.password, "password", "", "password (generated when empty)")
	cmd.Flags().StringVar(&opts.role, "role", "staff", "role (admin|staff|attraction)")
	cmd.Flags().IntVar(&opts.attractionID, "attraction", 0, "attraction id, required for the attraction role")
	cmd.Flags().BoolVar(&opts.ensureAdmin, "ensure-admin", false, "create the default admin when no operator exists")

	return cmd
}

// request validates the flags that can be checked without a database.
func (o *createOperatorOptions) request() (*service.CreateOperatorRequest, error) {
	if o.ensureAdmin {
		return nil, nil
	}
	if o.name == "" || o.username == "" {
		return nil, fmt.Errorf("--name and --username are required")
	}
	role, err := service.ParseRole(o.role)
	if err != nil {
		return nil, err
	}
	req := &service.CreateOperatorRequest{
		Name:     o.name,
		Username: o.username,
		Password: o.password,
		Role:     role,
	}
	if role == models.RoleAttraction {
		if o.attractionID <= 0 {
			return nil, fmt.Errorf("--attraction is required for the attraction role")
		}
		id := o.attractionID
		req.AttractionID = &id
	}
	return req, nil
}

func runCreateOperator(ctx context.Context, rootOpts *RootOptions, req *service.CreateOperatorRequest, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	svc := service.NewOperatorService(repository.NewOperatorRepository(e.db), repository.NewAttractionRepository(e.db))

	if req == nil {
		created, generated, err := svc.EnsureAdmin(ctx, e.cfg.AdminPassword)
		if err != nil {
			return err
		}
		return printResult(w, rootOpts, map[string]any{"created": created, "password": generated}, func(w io.Writer) {
			if !created {
				fmt.Fprintln(w, "Operators already exist, nothing to do")
				return
			}
			fmt.Fprintln(w, "Created operator admin")
			if generated != "" {
				fmt.Fprintf(w, "Password: %s\n", generated)
			}
		})
	}

	generated := ""
	if req.Password == "" {
		if req.Password, err = utils.GeneratePassword(8); err != nil {
			return err
		}
		generated = req.Password
	}
	op, err := svc.Create(ctx, *req)
	if err != nil {
		return err
	}
	return printResult(w, rootOpts, map[string]any{"operator": op, "password": generated}, func(w io.Writer) {
		fmt.Fprintf(w, "Created operator %s (id %d, role %s)\n", op.Username, op.ID, op.Role)
		if generated != "" {
			fmt.Fprintf(w, "Password: %s\n", generated)
		}
	})
}
