package main

import "github.com/polybasket/polybasket/cmd"

func main() {
	cmd.Execute()
}
