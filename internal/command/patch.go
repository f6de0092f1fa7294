package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/resourcekit/resource"
)

// PatchCommand changes properties of an entity.
type PatchCommand struct {
	*Meta
	flags commonFlags
	data  string
	unset stringList
}

func (c *PatchCommand) Synopsis() string { return "Update properties of an entity" }

func (c *PatchCommand) Help() string {
	return strings.TrimSpace(`
Usage: resourcectl patch [options] <url> [key=value...]

  Retrieves the entity at url, applies the changes and sends only the
  changed properties, guarded by the entity's etag. A concurrent change on
  the server makes the patch fail; nothing is retried.

  -data=<json>  Properties as a JSON object, applied before key=value pairs.
  -unset=<key>  Send key as null. Repeatable.
` + commonHelp)
}

func (c *PatchCommand) Run(args []string) int {
	f := c.flagSet("patch", &c.flags)
	f.StringVar(&c.data, "data", "", "Properties as a JSON object")
	f.Var(&c.unset, "unset", "Property to clear, repeatable")
	if err := f.Parse(args); err != nil {
		return c.fail(err)
	}
	if f.NArg() < 1 {
		c.UI.Error("patch expects a url")
		return 1
	}
	changes, err := parseData(c.data)
	if err != nil {
		return c.fail(err)
	}
	assigned, err := parseAssignments(f.Args()[1:])
	if err != nil {
		return c.fail(err)
	}
	for k, v := range assigned {
		changes[k] = v
	}
	for _, k := range c.unset {
		changes[k] = nil
	}
	if len(changes) == 0 {
		c.UI.Error("nothing to change")
		return 1
	}

	ctx := context.Background()
	s, err := c.open(ctx, &c.flags)
	if err != nil {
		return c.fail(err)
	}
	defer s.Close()

	r, err := s.client.Retrieve(ctx, f.Arg(0), nil, s.callOptions()...).Await(ctx)
	if err != nil {
		return c.fail(err)
	}
	e, ok := r.(*resource.Entity)
	if !ok {
		return c.fail(fmt.Errorf("%s is a %s, not an entity", r.Location(), r.Kind()))
	}
	for _, k := range sortedKeys(changes) {
		e.Set(k, changes[k])
	}

	updated, err := e.Update(ctx, s.callOptions()...).Await(ctx)
	if err != nil {
		return c.fail(err)
	}
	return c.print(s, viewOf(updated))
}

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}
