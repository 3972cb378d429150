package main

import (
	_ "time/tzdata"

	"github.com/matheuskafuri/kyou/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
