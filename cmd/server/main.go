package main

import "github.com/Togather-Foundation/contests/cmd/server/cmd"

func main() {
	cmd.Execute()
}
