package main

import "rehearse/internal/cli"

func main() {
	cli.Execute()
}
