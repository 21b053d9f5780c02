package main

import "github.com/hpcops/slurmacc/cmd"

func main() {
	cmd.Execute()
}
