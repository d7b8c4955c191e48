package main

import "github.com/luminous-money/client-go/internal/cli"

func main() {
	cli.Execute()
}
