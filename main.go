package main

import cmd "github.com/rohmanhakim/query-crawler/internal/cli"

func main() {
	cmd.Execute()
}
