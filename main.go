package main

import "lothelper/cmd"

// execute is swappable for testing
var execute = cmd.Execute

func main() {
	execute()
}
