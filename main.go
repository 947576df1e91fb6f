package main

import "github.com/khrees2412/jobpilot/cmd"

func main() {
	cmd.Execute()
}
