package main

import (
	"context"

	"marketdigest/cmd/marketdigest/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
