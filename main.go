package main

import "github.com/StinkyLord/sbomkit/cmd"

func main() {
	cmd.Execute()
}
