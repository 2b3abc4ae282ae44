package main

import "github.com/tradekit/backtest/internal/cli"

func main() {
	cli.Execute()
}
