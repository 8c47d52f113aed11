package main

import "docshelf/internal/cli"

func main() {
	cli.Execute()
}
