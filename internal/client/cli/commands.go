package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/client/datasource"
	"github.com/dmitrijs2005/admindata/internal/client/entities"
	"github.com/dmitrijs2005/admindata/internal/client/seed"
	"github.com/dmitrijs2005/admindata/internal/models"
)

var errUsage = errors.New("usage")

const helpText = `Available commands:
  list <collection> [page=N] [size=N] [filter=field:term|field=value] [sort=field:dir]
  create <collection> [json]
  update <collection> [json]
  delete <collection> <id>
  seed <collection> [file.json]
  countries
  tree
  status
  purge
  exit`

// Exec runs one command.
func (a *App) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "help":
		fmt.Fprintln(a.out, helpText)
	case "l", "list":
		err = a.list(ctx, rest)
	case "create":
		err = a.save(ctx, rest, false)
	case "update":
		err = a.save(ctx, rest, true)
	case "delete":
		err = a.delete(ctx, rest)
	case "seed":
		err = a.seed(ctx, rest)
	case "countries":
		err = a.countries(ctx)
	case "tree":
		err = a.tree(ctx)
	case "status":
		err = a.showStatus(ctx)
	case "purge":
		err = a.purge(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	if errors.Is(err, errUsage) {
		fmt.Fprintln(a.out, helpText)
	}
	return err
}

func (a *App) source(name string) (*datasource.DataSource, error) {
	ds, ok := a.sources[name]
	if !ok {
		names := make([]string, 0, len(a.sources))
		for n := range a.sources {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown collection %q (known: %s)", name, strings.Join(names, ", "))
	}
	return ds, nil
}

// queryArgs turns key=value arguments into a query, the same way the
// backend reads its URL parameters. Without a size the first page of the
// default size is listed.
func queryArgs(args []string) (models.Query, error) {
	v := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return models.Query{}, fmt.Errorf("%w: argument %q is not key=value", errUsage, arg)
		}
		v.Add(key, value)
	}
	if !v.Has(models.ParamSize) {
		v.Set(models.ParamSize, fmt.Sprint(models.DefaultPageSize))
	}
	return models.QueryFromValues(v)
}

func (a *App) list(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	ds, err := a.source(args[0])
	if err != nil {
		return err
	}
	q, err := queryArgs(args[1:])
	if err != nil {
		return err
	}

	records, err := ds.SetPaging(q.Page, q.PageSize).SetFilter(q.Filters...).SetSort(q.Sort...).GetAll(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := a.printRecord(r); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "(%d records, page %d, %s)\n", len(records), q.Page, a.Mode())
	return nil
}

// readRecord decodes the record given inline or, without arguments, read
// from the input until an empty line.
func (a *App) readRecord(args []string) (models.Record, error) {
	text := strings.Join(args, " ")
	if text == "" {
		var err error
		text, err = GetMultiline(a.reader, "Enter record JSON", a.out)
		if err != nil {
			return nil, err
		}
	}
	return models.DecodeRecord([]byte(text))
}

func (a *App) save(ctx context.Context, args []string, update bool) error {
	if len(args) == 0 {
		return errUsage
	}
	ds, err := a.source(args[0])
	if err != nil {
		return err
	}
	r, err := a.readRecord(args[1:])
	if err != nil {
		return err
	}
	if update && r.ID() == "" {
		return fmt.Errorf("%w: update needs a record with an id", errUsage)
	}

	var saved models.Record
	if update {
		saved, err = ds.Update(ctx, r)
	} else {
		saved, err = ds.Create(ctx, r)
	}
	if err != nil {
		return err
	}
	return a.printRecord(saved)
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	ds, err := a.source(args[0])
	if err != nil {
		return err
	}
	removed, err := ds.Delete(ctx, models.Record{models.FieldID: args[1]})
	if err != nil {
		return err
	}
	return a.printRecord(removed)
}

func (a *App) seed(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}
	ds, err := a.source(args[0])
	if err != nil {
		return err
	}

	var seeder datasource.Seeder
	switch {
	case len(args) == 2:
		seeder = seed.FileSeeder{Path: args[1]}
	case args[0] == entities.Countries.Name:
		seeder = seed.BridgeSeeder{Bridge: a.bridge, Param: entities.CountryFetch()}
	default:
		return fmt.Errorf("%w: seeding %s needs a file", errUsage, args[0])
	}

	n, err := ds.SeedIfEmpty(ctx, seeder)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %d records seeded\n", args[0], n)
	return nil
}

func (a *App) countries(ctx context.Context) error {
	records, err := a.bridge.Fetch(ctx, entities.CountryFetch())
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(a.out, "%s\t%s\n", r.String("code"), r.String("name"))
	}
	return nil
}

func (a *App) tree(ctx context.Context) error {
	roots, err := entities.LoadLocationTree(ctx,
		a.sources[entities.Countries.Name],
		a.sources[entities.Provinces.Name],
		a.sources[entities.Cities.Name],
	)
	if err != nil {
		return err
	}
	a.printTree(roots, 0)
	return nil
}

func (a *App) printTree(nodes []*entities.LocationNode, depth int) {
	for _, n := range nodes {
		label := n.Record.String("name")
		if label == "" {
			label = n.Record.ID()
		}
		fmt.Fprintf(a.out, "%s%s\n", strings.Repeat("  ", depth), label)
		a.printTree(n.Children, depth+1)
	}
}

func (a *App) showStatus(ctx context.Context) error {
	fmt.Fprintf(a.out, "mode: %s\n", a.Mode())
	if err := a.db.Err(); err != nil {
		fmt.Fprintf(a.out, "local cache: %v\n", err)
	}

	for _, e := range entities.All() {
		n, err := a.stores[e.Name].Count(ctx)
		if err != nil {
			fmt.Fprintf(a.out, "%s: %v\n", e.Name, err)
			continue
		}
		fmt.Fprintf(a.out, "%s: %d stored\n", e.Name, n)
	}

	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				fmt.Fprintf(a.out, "%s%s %g\n", mf.GetName(), labels(m.GetLabel()), c.GetValue())
			}
		}
	}
	return nil
}

type labelPair interface {
	GetName() string
	GetValue() string
}

func labels[T labelPair](pairs []T) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (a *App) purge(ctx context.Context) error {
	total := 0
	for _, e := range entities.All() {
		n, err := a.stores[e.Name].Purge(ctx)
		if err != nil {
			return err
		}
		total += n
	}
	n, err := a.bridgeCache.Purge(ctx)
	if err != nil {
		return err
	}
	total += n
	fmt.Fprintf(a.out, "%d records purged\n", total)
	return nil
}

func (a *App) printRecord(r models.Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}
