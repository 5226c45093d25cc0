package main

import "github.com/pfrederiksen/soccer-scraper/internal/cli"

func main() {
	cli.Execute()
}
