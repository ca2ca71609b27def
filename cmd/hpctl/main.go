package main

import "github.com/realtyml/hpctl/pkg/cli"

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

func main() {
	cli.Execute(version, commit, date)
}
