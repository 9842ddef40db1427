// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/perictl/pkg/cli/cmds/periph"
)
