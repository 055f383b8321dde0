package main

import "github.com/sadopc/levelup/cmd"

func main() {
	cmd.Execute()
}
