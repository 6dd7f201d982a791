package main

import (
	"os"

	"expensetracker/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
