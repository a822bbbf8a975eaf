package main

import (
	"ftp2http/cmd"
)

func main() {
	cmd.Execute()
}
