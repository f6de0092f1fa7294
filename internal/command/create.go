package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/resourcekit/resource"
)

// CreateCommand posts a new entity to a collection.
type CreateCommand struct {
	*Meta
	flags commonFlags
	data  string
}

func (c *CreateCommand) Synopsis() string { return "Create an entity in a collection" }

func (c *CreateCommand) Help() string {
	return strings.TrimSpace(`
Usage: resourcectl create [options] <collection-url> <kind> [key=value...]

  Creates a new entity of kind in the collection at collection-url. Values
  that parse as JSON keep their type, anything else is sent as a string.

  -data=<json>  Properties as a JSON object, applied before key=value pairs.
` + commonHelp)
}

func (c *CreateCommand) Run(args []string) int {
	f := c.flagSet("create", &c.flags)
	f.StringVar(&c.data, "data", "", "Properties as a JSON object")
	if err := f.Parse(args); err != nil {
		return c.fail(err)
	}
	if f.NArg() < 2 {
		c.UI.Error("create expects a collection url and a kind")
		return 1
	}
	props, err := parseData(c.data)
	if err != nil {
		return c.fail(err)
	}
	assigned, err := parseAssignments(f.Args()[2:])
	if err != nil {
		return c.fail(err)
	}
	for k, v := range assigned {
		props[k] = v
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
	col, ok := r.(*resource.Collection)
	if !ok {
		return c.fail(fmt.Errorf("%s is a %s, not a collection", r.Location(), r.Kind()))
	}

	draft, err := s.client.New(f.Arg(1))
	if err != nil {
		return c.fail(err)
	}
	for _, k := range sortedKeys(props) {
		draft.Set(k, props[k])
	}

	fut, err := col.Create(ctx, draft, s.callOptions()...)
	if err != nil {
		return c.fail(err)
	}
	created, err := fut.Await(ctx)
	if err != nil {
		return c.fail(err)
	}
	return c.print(s, viewOf(created))
}
