package main

import "github.com/bashkah/partyroom/internal/cli"

func main() {
	cli.Execute()
}
