package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/resourcekit/resource"
)

// DeleteCommand removes an entity.
type DeleteCommand struct {
	*Meta
	flags commonFlags
}

func (c *DeleteCommand) Synopsis() string { return "Delete an entity" }

func (c *DeleteCommand) Help() string {
	return strings.TrimSpace(`
Usage: resourcectl delete [options] <url>

  Deletes the entity at url and prints the server's final representation.
` + commonHelp)
}

func (c *DeleteCommand) Run(args []string) int {
	f := c.flagSet("delete", &c.flags)
	if err := f.Parse(args); err != nil {
		return c.fail(err)
	}
	if f.NArg() != 1 {
		c.UI.Error("delete expects exactly one url")
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
	final, err := e.Delete(ctx, s.callOptions()...).Await(ctx)
	if err != nil {
		return c.fail(err)
	}
	return c.print(s, viewOf(final))
}
