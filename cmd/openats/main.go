package main

import "github.com/rcliao/openats/internal/cli"

func main() {
	cli.Execute()
}
