package main

import "github.com/gostratum/prefixstore/internal/cli"

func main() {
	cli.Execute()
}
