package main

import "urchin/cmd"

func main() {
	cmd.Execute()
}
