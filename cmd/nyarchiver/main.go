package main

import (
	"context"
	"os"

	"github.com/nercone/nyarchiver/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute(context.Background()))
}
