package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cartronic/clientdb/internal/sqlite"
	"github.com/cartronic/clientdb/pkg/types"
)

func newClientCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "client",
		Aliases: []string{"clients"},
		Short:   "Add, update and show clients",
	}
	cmd.AddCommand(newClientAddCmd(a), newClientUpdateCmd(a), newClientShowCmd(a))
	return cmd
}

// bindClientFlags registers the per-field flags shared by add and update.
func bindClientFlags(fs *pflag.FlagSet, in *types.ClientInput) {
	fs.StringVar(&in.Name, "name", "", "client (company) name")
	fs.StringVar(&in.Email, "email", "", "email address, unique across clients")
	fs.StringVar(&in.Phone, "phone", "", "phone number")
	fs.StringVar(&in.ContactPerson, "contact", "", "contact person")
	fs.StringVar(&in.CategoryName, "category", "", "category name")
}

func newClientAddCmd(a *app) *cobra.Command {
	var in types.ClientInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry()
			if err != nil {
				return err
			}
			if in.CategoryName == "" {
				def, err := b.DefaultCategory()
				if err != nil {
					return registryErr(err)
				}
				in.CategoryName = def.Name
			}
			id, err := b.AddClient(in)
			if err != nil {
				return registryErr(err)
			}
			a.log.Infow("client added", "id", id, "email", in.Email)
			if a.json {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "client": in.Normalize()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added client %s (id %d)\n", in.Normalize().Name, id)
			return nil
		},
	}
	bindClientFlags(cmd.Flags(), &in)
	return cmd
}

func newClientUpdateCmd(a *app) *cobra.Command {
	var in types.ClientInput
	cmd := &cobra.Command{
		Use:   "update <email>",
		Short: "Change a client's fields; flags that are not given keep their stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry()
			if err != nil {
				return err
			}
			id, current, err := clientByEmail(b, args[0])
			if err != nil {
				return err
			}

			merged := current.Input()
			fs := cmd.Flags()
			if fs.Changed("name") {
				merged.Name = in.Name
			}
			if fs.Changed("email") {
				merged.Email = in.Email
			}
			if fs.Changed("phone") {
				merged.Phone = in.Phone
			}
			if fs.Changed("contact") {
				merged.ContactPerson = in.ContactPerson
			}
			if fs.Changed("category") {
				merged.CategoryName = in.CategoryName
			}

			if err := b.UpdateClient(id, merged); err != nil {
				return registryErr(err)
			}
			if a.json {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "client": merged.Normalize()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated client %s (id %d)\n", merged.Normalize().Name, id)
			return nil
		},
	}
	bindClientFlags(cmd.Flags(), &in)
	return cmd
}

func newClientShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <email>",
		Short: "Show one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry()
			if err != nil {
				return err
			}
			id, view, err := clientByEmail(b, args[0])
			if err != nil {
				return err
			}
			if a.json {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "client": view})
			}
			renderClient(cmd.OutOrStdout(), id, view)
			return nil
		},
	}
}

// clientByEmail loads a client and resolves its category name.
func clientByEmail(b *sqlite.Backend, email string) (int64, types.ClientView, error) {
	id, err := b.FindClientIDByEmail(email)
	if err != nil {
		return 0, types.ClientView{}, registryErr(err)
	}
	c, err := b.GetClient(id)
	if err != nil {
		return 0, types.ClientView{}, registryErr(err)
	}
	cats, err := b.ListCategories()
	if err != nil {
		return 0, types.ClientView{}, registryErr(err)
	}
	view := types.ClientView{
		Name:          c.Name,
		ContactPerson: c.ContactPerson,
		Phone:         c.Phone,
		Email:         c.Email,
	}
	for _, cat := range cats {
		if cat.ID == c.CategoryID {
			view.CategoryName = cat.Name
			break
		}
	}
	return id, view, nil
}
