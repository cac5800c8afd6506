package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/challan-admin/challan-admin/internal/auth"
	"github.com/challan-admin/challan-admin/internal/listview"
	"github.com/challan-admin/challan-admin/internal/records"
	"github.com/challan-admin/challan-admin/internal/remote"
	"github.com/challan-admin/challan-admin/internal/users"
)

const cliSubject = "adminctl"

func newRootCmd(e env) *cobra.Command {
	root := &cobra.Command{
		Use:          "adminctl",
		Short:        "Inspect and manage challan users and records",
		SilenceUsage: true,
	}
	root.SetOut(e.out)
	root.SetErr(e.out)
	root.SetIn(e.in)

	usersCmd := &cobra.Command{Use: "users", Short: "Work with user accounts"}
	usersCmd.AddCommand(newUsersListCmd(e))

	recordsCmd := &cobra.Command{Use: "records", Short: "Work with challan records"}
	recordsCmd.AddCommand(newRecordsListCmd(e), newRecordsDeleteCmd(e))

	adminCmd := &cobra.Command{Use: "admin", Short: "Manage admin panel accounts"}
	adminCmd.AddCommand(newAdminCreateCmd(e))

	root.AddCommand(usersCmd, recordsCmd, adminCmd)
	return root
}

type listFlags struct {
	search  string
	status  string
	payment string
	sort    string
	page    int
	json    bool
}

func (f *listFlags) register(cmd *cobra.Command, withPayment bool) {
	cmd.Flags().StringVar(&f.search, "search", "", "search term")
	cmd.Flags().StringVar(&f.status, "status", listview.StatusAll, "all, active or inactive")
	if withPayment {
		cmd.Flags().StringVar(&f.payment, "payment", listview.PaymentAll, "all, paid or unpaid")
	}
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort key")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON instead of a table")
}

// apply sets the changed flags on the controller in the same order the web
// filter form uses, so the page flag survives the reset filters cause.
func (f *listFlags) apply(cmd *cobra.Command, ctrl interface {
	SetFilter(field listview.Field, value string) error
}) error {
	steps := []struct {
		flag  string
		field listview.Field
		value string
	}{
		{"search", listview.FieldSearch, f.search},
		{"status", listview.FieldStatus, f.status},
		{"payment", listview.FieldPayment, f.payment},
		{"sort", listview.FieldSort, f.sort},
		{"page", listview.FieldPage, strconv.Itoa(f.page)},
	}
	for _, step := range steps {
		if cmd.Flags().Lookup(step.flag) == nil || !cmd.Flags().Changed(step.flag) {
			continue
		}
		if err := ctrl.SetFilter(step.field, step.value); err != nil {
			return err
		}
	}
	return nil
}

type pageOutput[T any] struct {
	Items      []T             `json:"items"`
	TotalPages int             `json:"totalPages"`
	Inputs     listview.Inputs `json:"inputs"`
}

func runList[T any](cmd *cobra.Command, e env, f *listFlags, entity listview.Entity[T], fetcher func(*remote.Client) listview.Fetcher[T], render func(pageOutput[T]) string) error {
	client, err := e.remote()
	if err != nil {
		return err
	}
	ctrl := listview.NewController(entity, fetcher(client), listview.Options{
		PageSize:  e.pageSize,
		Sequencer: &listview.CounterSequencer{},
	})
	if err := f.apply(cmd, ctrl); err != nil {
		return err
	}
	ctx := remote.WithSubject(cmd.Context(), cliSubject)
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	out := pageOutput[T]{Items: ctrl.Visible(), TotalPages: ctrl.TotalPages(), Inputs: ctrl.Inputs()}
	if f.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), render(out))
	return nil
}

func newUsersListCmd(e env) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, e, &f, users.Entity(), users.NewFetcher, renderUsers)
		},
	}
	f.register(cmd, false)
	return cmd
}

func newRecordsListCmd(e env) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, e, &f, records.Entity(), records.NewFetcher, renderRecords)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newRecordsDeleteCmd(e env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record on the remote API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := e.remote()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("record id required")
			}
			if err := client.DeleteRecord(remote.WithSubject(cmd.Context(), cliSubject), id); err != nil {
				return fmt.Errorf("delete record %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "record %s deleted\n", id)
			return nil
		},
	}
}

func newAdminCreateCmd(e env) *cobra.Command {
	return &cobra.Command{
		Use:   "create <username>",
		Short: "Create an admin account; the password is read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			return createAdmin(cmd.Context(), cmd, e, args[0], password)
		},
	}
}

func readPassword(cmd *cobra.Command) (string, error) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("password expected on stdin")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}

func createAdmin(ctx context.Context, cmd *cobra.Command, e env, username, password string) error {
	creator, closeFn, err := e.admins(ctx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	admin, err := creator.CreateAdmin(ctx, username, password)
	if errors.Is(err, auth.ErrDuplicateAdmin) {
		return fmt.Errorf("admin %q already exists", strings.TrimSpace(username))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %d)\n", admin.Username, admin.ID)
	return nil
}
