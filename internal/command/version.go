package command

import (
	"flag"
	"io"

	"github.com/kbukum/resourcekit/config"
	"github.com/kbukum/resourcekit/version"
)

// VersionCommand prints build information.
type VersionCommand struct {
	*Meta
}

func (c *VersionCommand) Synopsis() string { return "Print version information" }

func (c *VersionCommand) Help() string {
	return `Usage: resourcectl version [-output=json|yaml]

  Prints the version, commit and platform of this build.`
}

func (c *VersionCommand) Run(args []string) int {
	f := flag.NewFlagSet("version", flag.ContinueOnError)
	f.SetOutput(io.Discard)
	output := f.String("output", "", "Output format: json or yaml")
	if err := f.Parse(args); err != nil {
		return c.fail(err)
	}

	info := version.Get()
	switch *output {
	case "":
		c.UI.Output(Name + " " + info.Short())
		return 0
	case config.OutputJSON, config.OutputYAML:
		out, err := render(info, *output)
		if err != nil {
			return c.fail(err)
		}
		c.UI.Output(out)
		return 0
	default:
		c.UI.Error("unknown output format " + *output)
		return 1
	}
}
