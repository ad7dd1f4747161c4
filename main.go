package main

import "github.com/joshuarp/flakeid/internal/cmd"

func main() {
	cmd.Execute()
}
