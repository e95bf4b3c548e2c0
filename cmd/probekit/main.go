package main

import "github.com/probekit/probekit/pkg/cli"

func main() {
	cli.Execute()
}
