package main

import "shrimpwatch/internal/cli"

func main() {
	cli.Execute()
}
