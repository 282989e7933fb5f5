package main

import "github.com/KaramelBytes/churnviz-cli/cmd"

func main() {
	cmd.Execute()
}
