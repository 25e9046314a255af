package main

import "github.com/kamusis/nlcmd/cmd"

func main() {
	cmd.Execute()
}
