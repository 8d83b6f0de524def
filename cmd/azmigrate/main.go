package main

import "github.com/DrSkyle/azmigrate/cmd/azmigrate/commands"

func main() {
	commands.Execute()
}
