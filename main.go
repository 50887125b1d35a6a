package main

import "github.com/vietdv277/stratus/cmd"

func main() {
	cmd.Execute()
}
