package main

import "github.com/jjenkins/lawwatch/cmd"

func main() {
	cmd.Execute()
}
