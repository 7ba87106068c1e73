package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/collection"
)

// flagName maps a car field to its command-line flag.
func flagName(field string) string {
	if field == car.FieldModelYear {
		return "year"
	}
	return field
}

// fieldFlags binds one string flag per car field.
type fieldFlags struct {
	values map[string]*string
}

func bindFieldFlags(cmd *cobra.Command) *fieldFlags {
	ff := &fieldFlags{values: make(map[string]*string, len(car.Fields))}
	for _, f := range car.Fields {
		v := new(string)
		ff.values[f.Name] = v
		cmd.Flags().StringVar(v, flagName(f.Name), "", f.Label)
	}
	return ff
}

// changed returns the fields whose flag was given, in display order.
func (ff *fieldFlags) changed(cmd *cobra.Command) []string {
	var out []string
	for _, f := range car.Fields {
		if cmd.Flags().Changed(flagName(f.Name)) {
			out = append(out, f.Name)
		}
	}
	return out
}

func (ff *fieldFlags) get(field string) string {
	return *ff.values[field]
}

// draftPrompter asks the user for every field, starting from initial.
type draftPrompter func(ctx context.Context, title string, initial car.Draft) (car.Draft, error)

// confirmPrompter builds the Confirmer used by delete.
type confirmPrompter func(title string) collection.Confirmer

func promptDraft(ctx context.Context, title string, initial car.Draft) (car.Draft, error) {
	values := make([]string, len(car.Fields))
	fields := make([]huh.Field, len(car.Fields))
	for i, f := range car.Fields {
		values[i], _ = initial.Get(f.Name)
		label := f.Label
		input := huh.NewInput().
			Title(label).
			Value(&values[i]).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("%s is required", strings.ToLower(label))
				}
				return nil
			})
		if f.Numeric {
			input = input.Placeholder("number")
		}
		fields[i] = input
	}

	err := huh.NewForm(huh.NewGroup(fields...).Title(title)).RunWithContext(ctx)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return car.Draft{}, errAborted
		}
		return car.Draft{}, err
	}

	var d car.Draft
	for i, f := range car.Fields {
		d.Set(f.Name, values[i])
	}
	return d, nil
}

func promptConfirm(title string) collection.Confirmer {
	return collection.ConfirmFunc(func(ctx context.Context, _ string) (bool, error) {
		var ok bool
		confirm := huh.NewConfirm().
			Title(title).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&ok)
		err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx)
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return ok, err
	})
}

var errAborted = errors.New("aborted")
