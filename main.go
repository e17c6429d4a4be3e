package main

import "github.com/naka-gawa/github-stats-exporter/cmd"

func main() {
	cmd.Execute()
}
