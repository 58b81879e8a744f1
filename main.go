package main

import "radio-nowplaying/cmd"

func main() {
	cmd.Execute()
}
