package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/cli/internal/output"
	"github.com/getmockd/carshop/pkg/collection"
	"github.com/getmockd/carshop/pkg/form"
)

// writeOutput is the JSON shape of add, edit and delete results.
type writeOutput struct {
	Status string   `json:"status"`
	ID     string   `json:"id,omitempty"`
	Car    *car.Car `json:"car,omitempty"`
	// Warning is set when the write went through but the follow-up
	// reload failed.
	Warning string `json:"warning,omitempty"`
}

func newAddCmd(o *rootOptions) *cobra.Command {
	var ff *fieldFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a car",
		Long: `Add a car. Without field flags an interactive form asks for each field.
All six fields are required; the service validates their values.`,
		Example: `  carshop add
  carshop add --brand Volvo --model V60 --color Blue --fuel Diesel --year 2019 --price 42000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctl := form.NewController(a.store, form.WithLogger(a.logger))
			if err := ctl.OpenAdd(); err != nil {
				return err
			}

			var draft car.Draft
			if len(ff.changed(cmd)) == 0 {
				draft, err = o.prompt(cmd.Context(), "Add car", car.Draft{})
				if errors.Is(err, errAborted) {
					return o.reportCancelled()
				}
				if err != nil {
					return err
				}
			} else {
				for _, f := range car.Fields {
					draft.Set(f.Name, ff.get(f.Name))
				}
			}
			if err := applyDraft(ctl, draft, nil); err != nil {
				return err
			}

			err = ctl.Submit(cmd.Context())
			if !collection.IsCommitted(err) {
				return err
			}
			return o.reportWrite(err, "created", collection.MsgAdded, findCreated(a.store.Snapshot(), draft))
		},
	}
	ff = bindFieldFlags(cmd)
	return cmd
}

func newEditCmd(o *rootOptions) *cobra.Command {
	var ff *fieldFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a car",
		Long: `Edit a car. Only the fields given as flags change; without field flags
an interactive form opens pre-filled with the current values. The whole
record is sent back to the service.`,
		Example: `  carshop edit 3 --price 25000
  carshop edit 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := o.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.store.Reload(ctx); err != nil {
				return err
			}
			record, ok := a.store.Find(id)
			if !ok {
				return fmt.Errorf("%w: %s", errCarNotFound, id)
			}

			ctl := form.NewController(a.store, form.WithLogger(a.logger))
			if err := ctl.OpenEdit(record); err != nil {
				return err
			}

			changed := ff.changed(cmd)
			if len(changed) == 0 {
				draft, err := o.prompt(ctx, "Edit car "+id, record.Draft)
				if errors.Is(err, errAborted) {
					return o.reportCancelled()
				}
				if err != nil {
					return err
				}
				if err := applyDraft(ctl, draft, nil); err != nil {
					return err
				}
			} else {
				var draft car.Draft
				for _, name := range changed {
					draft.Set(name, ff.get(name))
				}
				if err := applyDraft(ctl, draft, changed); err != nil {
					return err
				}
			}

			err = ctl.Submit(ctx)
			if !collection.IsCommitted(err) {
				return err
			}
			var updated *car.Car
			if c, ok := a.store.Find(id); ok && err == nil {
				updated = &c
			}
			return o.reportWrite(err, "updated", collection.MsgUpdated, updated)
		},
	}
	ff = bindFieldFlags(cmd)
	return cmd
}

func newDeleteCmd(o *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a car",
		Long:    `Delete a car after confirmation. --force skips the question.`,
		Example: `  carshop delete 3
  carshop delete 3 --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := o.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			confirm := collection.Always
			if !force {
				if err := a.store.Reload(ctx); err != nil {
					return err
				}
				record, ok := a.store.Find(id)
				if !ok {
					return fmt.Errorf("%w: %s", errCarNotFound, id)
				}
				confirm = o.confirm(fmt.Sprintf("Delete %s %s (id %s)?", record.Brand, record.Model, id))
			}

			accepted := false
			err = a.store.Remove(ctx, id, collection.ConfirmFunc(func(ctx context.Context, id string) (bool, error) {
				ok, err := confirm.Confirm(ctx, id)
				accepted = ok
				return ok, err
			}))
			if !collection.IsCommitted(err) {
				return err
			}
			if !accepted {
				return o.reportCancelled()
			}
			return o.reportWrite(err, "deleted", collection.MsgDeleted, &car.Car{ID: id})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without asking")
	return cmd
}

// applyDraft feeds fields of draft into the controller. A nil fields list
// means every field.
func applyDraft(ctl *form.Controller, draft car.Draft, fields []string) error {
	if fields == nil {
		fields = fieldNames()
	}
	for _, name := range fields {
		v, _ := draft.Get(name)
		if err := ctl.FieldChange(name, v); err != nil {
			return err
		}
	}
	return nil
}

// findCreated picks the record a create most likely produced: the last one
// carrying exactly the submitted values.
func findCreated(snap *collection.Snapshot, draft car.Draft) *car.Car {
	for i := len(snap.Cars) - 1; i >= 0; i-- {
		if snap.Cars[i].Draft == draft {
			c := snap.Cars[i]
			return &c
		}
	}
	return nil
}

// reportWrite prints the outcome of a committed write. err is nil or a
// *collection.ReloadError.
func (o *rootOptions) reportWrite(err error, status, message string, result *car.Car) error {
	out := writeOutput{Status: status}
	if result != nil {
		out.ID = result.ID
		if status != "deleted" {
			out.Car = result
		}
	}
	if err != nil {
		out.Warning = collection.MsgFetchFailed
		output.Warn(o.stderr, "%s (%v)", collection.MsgFetchFailed, errors.Unwrap(err))
	}

	if o.jsonOutput {
		return output.JSON(o.stdout, out)
	}
	if _, err := fmt.Fprintln(o.stdout, message); err != nil {
		return err
	}
	if out.ID != "" && status != "deleted" {
		_, err := fmt.Fprintf(o.stdout, "ID: %s\n", out.ID)
		return err
	}
	return nil
}

func (o *rootOptions) reportCancelled() error {
	if o.jsonOutput {
		return output.JSON(o.stdout, writeOutput{Status: "cancelled"})
	}
	_, err := fmt.Fprintln(o.stdout, "Cancelled")
	return err
}
