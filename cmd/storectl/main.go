package main

import "digitronix/internal/cli"

func main() {
	cli.Execute()
}
