package main

import "github.com/heimdex/detectq/internal/cli"

func main() {
	cli.Execute()
}
