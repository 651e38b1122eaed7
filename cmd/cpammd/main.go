package main

import "github.com/LeJamon/cpamm/internal/cli"

func main() {
	cli.Execute()
}
