package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/resourcekit/resource"
)

// ListCommand prints the items of a collection.
type ListCommand struct {
	*Meta
	flags commonFlags
}

func (c *ListCommand) Synopsis() string { return "List the items of a collection" }

func (c *ListCommand) Help() string {
	return strings.TrimSpace(`
Usage: resourcectl list [options] <url>

  Retrieves the collection at url and prints its items ordered by
  location. The collection's kind must be configured as a collection.
` + commonHelp)
}

func (c *ListCommand) Run(args []string) int {
	f := c.flagSet("list", &c.flags)
	if err := f.Parse(args); err != nil {
		return c.fail(err)
	}
	if f.NArg() != 1 {
		c.UI.Error("list expects exactly one url")
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
	col, ok := r.(*resource.Collection)
	if !ok {
		return c.fail(fmt.Errorf("%s is a %s, not a collection", r.Location(), r.Kind()))
	}

	items := make([]view, 0, col.Len())
	for _, loc := range col.Locations() {
		item, _ := col.Item(loc)
		items = append(items, viewOf(item))
	}
	return c.print(s, items)
}
