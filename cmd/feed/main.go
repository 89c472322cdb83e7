package main

import "stockfeed/cmd/feed/cmd"

func main() {
	cmd.Execute()
}
