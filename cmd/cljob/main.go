package main

import "github.com/StepLg/cljob/cmd"

func main() {
	cmd.Execute()
}
