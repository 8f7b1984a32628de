package main

import "github.com/4ug-aug/presentor/internal/cli"

func main() {
	cli.Execute()
}
