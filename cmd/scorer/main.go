package main

import "github.com/funnelalchemy/prospect-scorer/internal/cli"

func main() {
	cli.Execute()
}
