package main

import "cardkeeper/cmd/client/cmd"

func main() {
	cmd.Execute()
}
