package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/resourcekit/resource"
)

// GetCommand prints one resource.
type GetCommand struct {
	*Meta
	flags commonFlags
}

func (c *GetCommand) Synopsis() string { return "Retrieve a resource" }

func (c *GetCommand) Help() string {
	return strings.TrimSpace(`
Usage: resourcectl get [options] <url>

  Retrieves the resource at url and prints its kind, location, etag and
  properties. Relative urls resolve against the configured base url.
` + commonHelp)
}

func (c *GetCommand) Run(args []string) int {
	f := c.flagSet("get", &c.flags)
	if err := f.Parse(args); err != nil {
		return c.fail(err)
	}
	if f.NArg() != 1 {
		c.UI.Error("get expects exactly one url")
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
	return c.print(s, viewOf(r))
}

func (s *session) callOptions() []resource.CallOption {
	if len(s.headers) == 0 {
		return nil
	}
	return []resource.CallOption{resource.WithHeaders(s.headers)}
}

func (m *Meta) print(s *session, v any) int {
	out, err := render(v, s.cfg.Output)
	if err != nil {
		return m.fail(fmt.Errorf("render: %w", err))
	}
	m.UI.Output(out)
	return 0
}
