package main

import "github/chapool/mtw-recovery/cmd"

func main() {
	cmd.Execute()
}
