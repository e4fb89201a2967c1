package main

import "github.com/icco/genecg/cmd"

func main() {
	cmd.Execute()
}
