package main

import "github.com/koustreak/dbchat/internal/cli"

func main() {
	cli.Execute()
}
