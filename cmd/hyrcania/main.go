package main

import "github.com/IanS5/hyrcania/cmd"

func main() {
	cmd.Execute()
}
