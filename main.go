package main

import "github.com/KaramelBytes/cpxmelt-cli/cmd"

func main() {
	cmd.Execute()
}
