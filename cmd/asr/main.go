package main

import "watchme-asr/cmd/asr/cmd"

func main() {
	cmd.Execute()
}
