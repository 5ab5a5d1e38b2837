package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/crestline/estatesite/internal/adminclient"
	"github.com/crestline/estatesite/internal/properties"
	"github.com/crestline/estatesite/internal/properties/editor"
)

type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type unitEdit struct {
	unitID string
	field  editor.Field
	value  any
}

// parseSet reads UNIT.field=value, e.g. HT-3.price=1500.
func parseSet(arg string) (unitEdit, error) {
	target, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return unitEdit{}, fmt.Errorf("%q: expected UNIT.field=value", arg)
	}
	dot := strings.LastIndex(target, ".")
	if dot <= 0 || dot == len(target)-1 {
		return unitEdit{}, fmt.Errorf("%q: expected UNIT.field=value", arg)
	}

	field := editor.Field(strings.ToLower(target[dot+1:]))
	value, err := editor.ParseValue(field, raw)
	if err != nil {
		return unitEdit{}, fmt.Errorf("%q: %w", arg, err)
	}
	return unitEdit{unitID: target[:dot], field: field, value: value}, nil
}

func (a *app) units(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("units", flag.ContinueOnError)
	buildingID := fs.String("building", "", "building id")
	add := fs.Int("add", 0, "number of units to add with default values")
	dryRun := fs.Bool("dry-run", false, "show the changes, then discard them")
	var sets, removes listFlag
	fs.Var(&sets, "set", "UNIT.field=value, repeatable")
	fs.Var(&removes, "remove", "unit id to remove, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *buildingID == "" {
		return errors.New("building is required")
	}

	edits := make([]unitEdit, 0, len(sets))
	for _, s := range sets {
		e, err := parseSet(s)
		if err != nil {
			return err
		}
		edits = append(edits, e)
	}

	if _, err := a.shell.Navigate(ctx, adminclient.SectionProperties); err != nil {
		return err
	}
	ws := a.shell.Workspace()
	if _, err := ws.SwitchTab(*buildingID); err != nil {
		return fmt.Errorf("building %s: %w", *buildingID, err)
	}
	ed := ws.Active()

	for _, id := range removes {
		// removal was asked for explicitly on the command line
		if _, err := ed.Remove(id, func(properties.Unit) bool { return true }); err != nil {
			return fmt.Errorf("remove %s: %w", id, err)
		}
	}
	for i := 0; i < *add; i++ {
		ed.Add(editor.DefaultUnitForm())
	}
	for _, e := range edits {
		if err := ed.Edit(e.unitID, e.field, e.value); err != nil {
			return fmt.Errorf("edit %s.%s: %w", e.unitID, e.field, err)
		}
	}

	if err := printRows(a, ed); err != nil {
		return err
	}

	pending, err := a.shell.Navigate(ctx, adminclient.SectionDashboard)
	if err != nil {
		return err
	}
	if pending == nil {
		fmt.Fprintln(a.out, "no changes")
		return nil
	}

	choice := editor.SaveThenProceed
	if *dryRun {
		choice = editor.DiscardThenProceed
	}
	if err := pending.Resolve(ctx, choice); err != nil {
		return err
	}

	if *dryRun {
		fmt.Fprintln(a.out, "dry run, changes discarded")
	} else {
		fmt.Fprintln(a.out, "saved")
	}
	return nil
}

func printRows(a *app, ed *editor.Editor) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tTITLE\tFLOOR\tSIZE\tPRICE\tSTATUS\tCONDITION\tCHANGES")
	for _, r := range ed.Rows() {
		u := r.Unit()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f\t%.2f\t%s\t%s\t%s\n",
			u.ID, r.State(), u.Title, u.Floor, u.Size, u.Price, u.Status, u.Condition, formatChanges(r.Changes()))
	}
	for _, u := range ed.Removed() {
		fmt.Fprintf(tw, "%s\tremoved\t%s\t\t\t\t\t\t\n", u.ID, u.Title)
	}
	return tw.Flush()
}

func formatChanges(changes editor.ChangeSet) string {
	if len(changes) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(changes))
	for field, c := range changes {
		parts = append(parts, fmt.Sprintf("%s: %s", field, c))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
