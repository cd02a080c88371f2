package main

import "github.com/cazylab/ceclust/cmd"

func main() {
	cmd.Execute()
}
