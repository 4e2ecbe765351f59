package main

import (
	"vfsbot/cmd/vfsbot/commands"
	"vfsbot/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext())
}
