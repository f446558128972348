package main

import "github.com/diyhub/homelabctl/cmd"

func main() {
	cmd.Execute()
}
